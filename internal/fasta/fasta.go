package fasta

// Package fasta contains minimal helpers to parse and render FASTA formatted
// data used by the project. It intentionally keeps parsing simple and
// conservative.

import (
	"bufio"
	"io"
	"strings"
)

// FastaRecord represents a single FASTA record. Header is the identifier up
// to the first space of the header line; Description is the remainder, empty
// when the line carries only an identifier.
type FastaRecord struct {
	Header      string `json:"header"`
	Description string `json:"description"`
	Sequence    string `json:"sequence"`
}

// ParseFasta reads FASTA records from r and returns a slice of FastaRecord.
// Lines beginning with '>' denote headers; sequence lines are trimmed and
// concatenated, blank lines are skipped. Input with no header lines yields no
// records.
func ParseFasta(r io.Reader) []FastaRecord {
	scanner := bufio.NewScanner(r)
	var records []FastaRecord
	var current FastaRecord
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if current.Header != "" {
				records = append(records, current)
			}
			header, description, _ := strings.Cut(line[1:], " ")
			current = FastaRecord{Header: header, Description: description}
		} else {
			current.Sequence += line
		}
	}
	if current.Header != "" {
		records = append(records, current)
	}
	return records
}

// sequence lines are folded at this width on output
const lineWidth = 60

// WriteFasta renders rec to w: a ">header description" line followed by the
// sequence wrapped at 60 characters per line.
func WriteFasta(w io.Writer, rec FastaRecord) error {
	header := ">" + rec.Header
	if rec.Description != "" {
		header += " " + rec.Description
	}
	if _, err := io.WriteString(w, header+"\n"); err != nil {
		return err
	}
	for i := 0; i < len(rec.Sequence); i += lineWidth {
		end := i + lineWidth
		if end > len(rec.Sequence) {
			end = len(rec.Sequence)
		}
		if _, err := io.WriteString(w, rec.Sequence[i:end]+"\n"); err != nil {
			return err
		}
	}
	return nil
}
