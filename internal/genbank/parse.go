package genbank

import (
	"bufio"
	"io"
	"strings"
)

// sectionKeywordList gates dispatch: only lines starting with one of these
// probe the parser list, everything else is offered to the active parser.
var sectionKeywordList = []string{
	"LOCUS", "DEFINITION", "ACCESSION", "VERSION", "KEYWORDS",
	"SOURCE", "REFERENCE", "COMMENT", "PRIMARY", "FEATURES", "ORIGIN",
}

// sectionParsers is probed in order and the first match wins. SOURCE,
// REFERENCE and FEATURES also accept lines beyond their own keyword, so this
// order doubles as a priority list. All parsers are stateless values; the
// per-record state lives in recordState.
var sectionParsers = []sectionParser{
	locusParser{},
	textParser{keyword: "DEFINITION", section: sectionDefinition, field: func(st *recordState) *string { return &st.definition }},
	textParser{keyword: "ACCESSION", section: sectionAccession, field: func(st *recordState) *string { return &st.accession }},
	versionParser{},
	keywordsParser{},
	sourceParser{},
	referenceParser{},
	textParser{keyword: "COMMENT", section: sectionComment, field: func(st *recordState) *string { return &st.comment }},
	textParser{keyword: "PRIMARY", section: sectionPrimary, field: func(st *recordState) *string { return &st.primary }},
	featuresParser{},
	originParser{},
}

// ParseGenbank reads every record in r, in input order. The whole input is
// read up front; records are split on terminator lines and parsed
// independently, though they share one error path: a fatal LOCUS error in any
// record aborts the entire parse.
func ParseGenbank(r io.Reader) ([]GenbankRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var records []GenbankRecord
	for _, chunk := range splitRecords(string(data)) {
		rec, err := parseRecord(chunk)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// splitRecords divides file content into one chunk per record on lines equal
// to the terminator. Whitespace-only chunks are dropped.
func splitRecords(content string) []string {
	var chunks []string
	var b strings.Builder
	flush := func() {
		if strings.TrimSpace(b.String()) != "" {
			chunks = append(chunks, b.String())
		}
		b.Reset()
	}
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := sc.Text()
		if line == recordTerminator {
			flush()
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	flush()
	return chunks
}

// parseRecord dispatches the lines of one chunk. Lines starting with a
// section keyword pick a parser from the priority list; other lines go to the
// active parser if it accepts them, and are dropped otherwise.
func parseRecord(chunk string) (GenbankRecord, error) {
	st := &recordState{}
	var active sectionParser
	sc := bufio.NewScanner(strings.NewReader(chunk))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if hasAnyPrefix(line, sectionKeywordList) {
			for _, p := range sectionParsers {
				if p.canConsume(line, st) {
					if err := p.consume(line, st); err != nil {
						return GenbankRecord{}, err
					}
					active = p
					break
				}
			}
			continue
		}
		if active != nil && active.canConsume(line, st) {
			if err := active.consume(line, st); err != nil {
				return GenbankRecord{}, err
			}
		}
	}
	return st.finalize(), nil
}
