package service

// Package service ties format detection, parsing and persistence together.
// The CLI, the web API and the TUI all go through it rather than touching
// the parsers directly.

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/akrmnd/vitalis/internal/fasta"
	"github.com/akrmnd/vitalis/internal/genbank"
	"github.com/akrmnd/vitalis/internal/sniff"
	"github.com/akrmnd/vitalis/internal/store"
)

var (
	// ErrUnsupportedFormat means the input was neither GenBank nor FASTA.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrUnsupportedRecord means SaveRecord was handed a type it cannot save.
	ErrUnsupportedRecord = errors.New("unsupported record type")
)

// ParseResult holds the records parsed from one file. Exactly one of
// Genbank and Fasta is populated, matching Format.
type ParseResult struct {
	Format  sniff.Format
	Genbank []genbank.GenbankRecord
	Fasta   []fasta.FastaRecord
}

// Records returns the number of records parsed.
func (r *ParseResult) Records() int {
	if r.Format == sniff.FormatFasta {
		return len(r.Fasta)
	}
	return len(r.Genbank)
}

// Service parses sequence files and saves records through a Store.
type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Store returns the underlying store.
func (s *Service) Store() *store.Store { return s.store }

// ParseFile reads path (gzip-aware) and parses it as hint, or as whatever
// Detect decides when hint is FormatUnknown. Content that matches no known
// format yields ErrUnsupportedFormat.
func (s *Service) ParseFile(path string, hint sniff.Format) (*ParseResult, error) {
	rc, err := store.OpenSequence(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	content := string(data)

	format := hint
	if format == sniff.FormatUnknown {
		format = sniff.Detect(content)
	}

	switch format {
	case sniff.FormatGenbank:
		records, err := genbank.ParseGenbank(strings.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &ParseResult{Format: sniff.FormatGenbank, Genbank: records}, nil
	case sniff.FormatFasta:
		records := fasta.ParseFasta(strings.NewReader(content))
		return &ParseResult{Format: sniff.FormatFasta, Fasta: records}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// SaveRecord persists one parsed record to the output directory and returns
// the written path. It accepts a GenbankRecord or a FastaRecord, by value or
// pointer.
func (s *Service) SaveRecord(rec any) (string, error) {
	switch r := rec.(type) {
	case genbank.GenbankRecord:
		return s.store.SaveGenbank(r)
	case *genbank.GenbankRecord:
		return s.store.SaveGenbank(*r)
	case fasta.FastaRecord:
		return s.store.SaveFasta(r)
	case *fasta.FastaRecord:
		return s.store.SaveFasta(*r)
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedRecord, rec)
	}
}
