package sniff

// Package sniff guesses the format of a sequence file from its content.
// Detection is heuristic: it looks at the first kilobyte for the telltale
// shapes of each format and falls back to scanning the first lines. The
// FASTA probe runs before the GenBank probe; callers relying on detection
// order should not reorder them.

import (
	"fmt"
	"io"
	"strings"

	"github.com/akrmnd/vitalis/internal/store"
)

// Format identifies a supported sequence file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatGenbank
	FormatFasta
)

func (f Format) String() string {
	switch f {
	case FormatGenbank:
		return "genbank"
	case FormatFasta:
		return "fasta"
	default:
		return "unknown"
	}
}

// ParseFormat maps a user-supplied format hint to a Format. The empty string
// means no hint was given and detection should run instead.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FormatUnknown, nil
	case "genbank":
		return FormatGenbank, nil
	case "fasta":
		return FormatFasta, nil
	default:
		return FormatUnknown, fmt.Errorf("unsupported format %q (want genbank or fasta)", s)
	}
}

// headBytes bounds the cheap first-pass probe.
const headBytes = 1024

// headLines bounds the fallback line scan.
const headLines = 20

// Detect classifies content as FASTA or GenBank. The first pass inspects the
// leading kilobyte: FASTA needs a '>' plus at least one non-header data line,
// GenBank needs LOCUS plus one of DEFINITION, ACCESSION or VERSION. When the
// first pass is inconclusive the first 20 lines are scanned for a line
// starting '>' (FASTA) or LOCUS (GenBank).
func Detect(content string) Format {
	head := content
	if len(head) > headBytes {
		head = head[:headBytes]
	}

	if strings.Contains(head, ">") && hasDataLine(head) {
		return FormatFasta
	}
	if strings.Contains(head, "LOCUS") && containsAny(head, "DEFINITION", "ACCESSION", "VERSION") {
		return FormatGenbank
	}

	lines := strings.Split(content, "\n")
	if len(lines) > headLines {
		lines = lines[:headLines]
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			return FormatFasta
		}
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "LOCUS") {
			return FormatGenbank
		}
	}
	return FormatUnknown
}

// DetectFile reads path (gzip-aware) and classifies its content.
func DetectFile(path string) (Format, error) {
	rc, err := store.OpenSequence(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return FormatUnknown, err
	}
	return Detect(string(data)), nil
}

// hasDataLine reports whether any non-blank line does not start with '>'.
func hasDataLine(content string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !strings.HasPrefix(line, ">") {
			return true
		}
	}
	return false
}

func containsAny(content string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(content, n) {
			return true
		}
	}
	return false
}
