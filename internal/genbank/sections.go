package genbank

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Fixed-column layout of the flat-file format.
const (
	sectionIndent    = "  "
	pubmedIndent     = "   "
	featureIndent    = "     "
	taxonomyIndent   = "            "
	qualifierIndent  = "                     "
	recordTerminator = "//"
)

type section int

const (
	sectionNone section = iota
	sectionLocus
	sectionDefinition
	sectionAccession
	sectionVersion
	sectionKeywords
	sectionSource
	sectionReference
	sectionComment
	sectionPrimary
	sectionFeatures
	sectionOrigin
)

// recordState accumulates one record while its lines are dispatched. A fresh
// state is created per record chunk, so nothing can leak between parse runs;
// the section parsers themselves hold no state at all.
type recordState struct {
	locus            string
	size             int
	moleculeType     string
	division         string
	modificationDate string
	definition       string
	accession        string
	version          string
	keywords         []string
	source           string
	organism         string
	taxonomy         string
	references       []Reference
	features         []Feature
	comment          string
	primary          string

	section      section
	feature      *Feature
	reference    *Reference
	seqFragments []string
	inFeatures   bool
	inSequence   bool
}

// finalize flushes in-progress items and assembles the output record. It runs
// once per record, after the last line has been dispatched.
func (st *recordState) finalize() GenbankRecord {
	if st.feature != nil {
		st.features = append(st.features, *st.feature)
		st.feature = nil
	}
	if st.reference != nil {
		st.references = append(st.references, *st.reference)
		st.reference = nil
	}
	organism := st.organism
	if st.taxonomy != "" {
		organism += " [" + st.taxonomy + "]"
	}
	rec := GenbankRecord{
		Locus:            st.locus,
		Size:             st.size,
		MoleculeType:     st.moleculeType,
		GenbankDivision:  st.division,
		ModificationDate: st.modificationDate,
		Definition:       st.definition,
		Accession:        st.accession,
		Version:          st.version,
		Keywords:         st.keywords,
		Source:           st.source,
		Organism:         organism,
		Taxonomy:         st.taxonomy,
		References:       st.references,
		Features:         st.features,
		Sequence:         strings.Join(st.seqFragments, ""),
		Comment:          st.comment,
		Primary:          st.primary,
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}
	if rec.References == nil {
		rec.References = []Reference{}
	}
	if rec.Features == nil {
		rec.Features = []Feature{}
	}
	return rec
}

// sectionParser is one section grammar. canConsume reports whether the line
// belongs to this section given the current state; consume applies it.
type sectionParser interface {
	canConsume(line string, st *recordState) bool
	consume(line string, st *recordState) error
}

func hasAnyPrefix(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// locusParser reads the single LOCUS header line. The token layout is
// positional: name, size, unit, molecule type, topology, division, date.
// Unit and topology are discarded.
type locusParser struct{}

func (locusParser) canConsume(line string, _ *recordState) bool {
	return strings.HasPrefix(line, "LOCUS")
}

func (locusParser) consume(line string, st *recordState) error {
	st.section = sectionLocus
	parts := strings.Fields(line[len("LOCUS"):])
	if len(parts) < 7 {
		return nil
	}
	size, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("locus line: size token %q is not a number: %w", parts[1], err)
	}
	st.locus = parts[0]
	st.size = size
	st.moleculeType = parts[3]
	st.division = parts[5]
	st.modificationDate = parts[6]
	return nil
}

// textParser handles the free-text sections that wrap across indented lines:
// DEFINITION, ACCESSION, COMMENT and PRIMARY. Continuations are appended
// space-joined to the field.
type textParser struct {
	keyword string
	section section
	field   func(*recordState) *string
}

func (p textParser) canConsume(line string, st *recordState) bool {
	return strings.HasPrefix(line, p.keyword) ||
		(st.section == p.section && strings.HasPrefix(line, " "))
}

func (p textParser) consume(line string, st *recordState) error {
	f := p.field(st)
	if strings.HasPrefix(line, p.keyword) {
		st.section = p.section
		*f = strings.TrimSpace(line[len(p.keyword):])
		return nil
	}
	*f += " " + strings.TrimSpace(line)
	return nil
}

// versionParser overwrites the version verbatim on every VERSION line.
type versionParser struct{}

func (versionParser) canConsume(line string, _ *recordState) bool {
	return strings.HasPrefix(line, "VERSION")
}

func (versionParser) consume(line string, st *recordState) error {
	st.section = sectionVersion
	st.version = strings.TrimSpace(line[len("VERSION"):])
	return nil
}

// keywordsParser splits the remainder on semicolons. An empty result keeps
// whatever keywords an earlier line already set.
type keywordsParser struct{}

func (keywordsParser) canConsume(line string, _ *recordState) bool {
	return strings.HasPrefix(line, "KEYWORDS")
}

func (keywordsParser) consume(line string, st *recordState) error {
	st.section = sectionKeywords
	text := strings.TrimRight(strings.TrimSpace(line[len("KEYWORDS"):]), ".")
	var keywords []string
	for _, kw := range strings.Split(text, ";") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) > 0 {
		st.keywords = keywords
	}
	return nil
}

// sourceParser owns the SOURCE block including the ORGANISM sub-section and
// the taxonomy lines at the 12-space indent. In-section lines that match none
// of those three shapes are claimed but carry nothing.
type sourceParser struct{}

var sourceStop = []string{"REFERENCE", "COMMENT", "PRIMARY", "FEATURES", "ORIGIN", "BASE", "CONTIG"}

func (sourceParser) canConsume(line string, st *recordState) bool {
	if strings.HasPrefix(line, "SOURCE") || strings.HasPrefix(line, sectionIndent+"ORGANISM") {
		return true
	}
	if st.section != sectionSource {
		return false
	}
	if strings.HasPrefix(line, taxonomyIndent) {
		return true
	}
	return !hasAnyPrefix(line, sourceStop)
}

func (sourceParser) consume(line string, st *recordState) error {
	switch {
	case strings.HasPrefix(line, "SOURCE"):
		st.section = sectionSource
		st.source = strings.TrimSpace(line[len("SOURCE"):])
	case strings.HasPrefix(line, sectionIndent+"ORGANISM"):
		st.organism = strings.TrimSpace(line[len(sectionIndent+"ORGANISM"):])
	case st.section == sectionSource && strings.HasPrefix(line, taxonomyIndent):
		taxon := strings.TrimSpace(line)
		if st.taxonomy != "" {
			st.taxonomy += " " + taxon
		} else {
			st.taxonomy = taxon
		}
	}
	return nil
}

// referenceParser collects one reference block per REFERENCE line. Sub-fields
// take the first line only; a label seen twice keeps the later value.
type referenceParser struct{}

var referenceStop = []string{"FEATURES", "ORIGIN", "BASE", "CONTIG", "COMMENT", "PRIMARY"}

func (referenceParser) canConsume(line string, st *recordState) bool {
	if strings.HasPrefix(line, "REFERENCE") {
		return true
	}
	return st.section == sectionReference && !hasAnyPrefix(line, referenceStop)
}

func (referenceParser) consume(line string, st *recordState) error {
	if strings.HasPrefix(line, "REFERENCE") {
		st.section = sectionReference
		if st.reference != nil {
			st.references = append(st.references, *st.reference)
		}
		st.reference = &Reference{Citation: strings.TrimSpace(line[len("REFERENCE"):])}
		return nil
	}
	if st.reference == nil {
		return nil
	}
	switch {
	case strings.HasPrefix(line, sectionIndent+"AUTHORS"):
		st.reference.Authors = strings.TrimSpace(line[len(sectionIndent+"AUTHORS"):])
	case strings.HasPrefix(line, sectionIndent+"TITLE"):
		st.reference.Title = strings.TrimSpace(line[len(sectionIndent+"TITLE"):])
	case strings.HasPrefix(line, sectionIndent+"JOURNAL"):
		st.reference.Journal = strings.TrimSpace(line[len(sectionIndent+"JOURNAL"):])
	case strings.HasPrefix(line, pubmedIndent+"PUBMED"):
		st.reference.PubMed = strings.TrimSpace(line[len(pubmedIndent+"PUBMED"):])
	}
	return nil
}

// featuresParser reads the feature table. Feature lines sit at the 5-space
// indent, qualifier lines at the 21-space indent; the qualifier check runs
// first since its indent is a superset of the feature indent.
type featuresParser struct{}

var featuresStop = []string{"ORIGIN", "BASE", "CONTIG"}

func (featuresParser) canConsume(line string, st *recordState) bool {
	if strings.HasPrefix(line, "FEATURES") {
		return true
	}
	return st.inFeatures && !hasAnyPrefix(line, featuresStop)
}

func (featuresParser) consume(line string, st *recordState) error {
	if strings.HasPrefix(line, "FEATURES") {
		st.section = sectionFeatures
		st.inFeatures = true
		return nil
	}
	if strings.HasPrefix(line, "ORIGIN") {
		st.inFeatures = false
		return nil
	}
	switch {
	case strings.HasPrefix(line, qualifierIndent):
		if st.feature != nil {
			consumeQualifierLine(line, st.feature)
		}
	case strings.HasPrefix(line, featureIndent):
		startFeature(line, st)
	}
	return nil
}

// startFeature flushes any in-progress feature, then begins a new one when
// the line carries both a type and a location. A malformed line flushes but
// creates nothing.
func startFeature(line string, st *recordState) {
	if st.feature != nil {
		st.features = append(st.features, *st.feature)
		st.feature = nil
	}
	rest := strings.TrimSpace(line[len(featureIndent):])
	i := strings.IndexFunc(rest, unicode.IsSpace)
	if i < 0 {
		return
	}
	st.feature = &Feature{
		FeatureType: rest[:i],
		Location:    strings.TrimSpace(rest[i:]),
	}
}

// consumeQualifierLine applies one 21-space-indent line to the open feature.
// A /key=value line starts a fresh fragment list; the surrounding quotes are
// stripped only when the opening quote sits on this same line. Any other line
// is a wrapped continuation and is appended under the newest key.
func consumeQualifierLine(line string, f *Feature) {
	q := strings.TrimSpace(line[len(qualifierIndent):])
	if strings.HasPrefix(q, "/") {
		key, value, ok := strings.Cut(q[1:], "=")
		if !ok {
			f.Qualifiers.Set(key, "")
			return
		}
		if strings.HasPrefix(value, `"`) {
			value = strings.TrimSuffix(value[1:], `"`)
		}
		f.Qualifiers.Set(key, value)
		return
	}
	f.Qualifiers.AppendLast(strings.TrimSuffix(q, `"`))
}

// originParser switches the record into sequence mode and gathers the data
// lines. Each line loses its leading position token; the remaining tokens are
// joined with no separator and kept as one fragment.
type originParser struct{}

func (originParser) canConsume(line string, st *recordState) bool {
	return strings.HasPrefix(line, "ORIGIN") || st.section == sectionOrigin
}

func (originParser) consume(line string, st *recordState) error {
	if strings.HasPrefix(line, "ORIGIN") {
		st.section = sectionOrigin
		st.inSequence = true
		return nil
	}
	if !st.inSequence || strings.HasPrefix(line, recordTerminator) {
		return nil
	}
	parts := strings.Fields(line)
	if len(parts) > 1 {
		st.seqFragments = append(st.seqFragments, strings.Join(parts[1:], ""))
	}
	return nil
}
