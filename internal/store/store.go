package store

// Package store owns the on-disk layout: the upload staging area for files
// received over HTTP and the output directory where parsed records are
// written. It also knows how to open possibly gzip-compressed sequence
// files.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"

	"github.com/akrmnd/vitalis/internal/fasta"
	"github.com/akrmnd/vitalis/internal/genbank"
)

// Store manages the upload and output directories.
type Store struct {
	uploadDir string
	outputDir string
}

// New creates both directories if needed and returns a Store over them.
func New(uploadDir, outputDir string) (*Store, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{uploadDir: uploadDir, outputDir: outputDir}, nil
}

// UploadDir returns the staging directory for uploaded files.
func (s *Store) UploadDir() string { return s.uploadDir }

// OutputDir returns the directory parsed records are saved to.
func (s *Store) OutputDir() string { return s.outputDir }

// StageUpload copies r into the upload directory under the base name of
// name and returns the staged path.
func (s *Store) StageUpload(name string, r io.Reader) (string, error) {
	path := filepath.Join(s.uploadDir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return path, nil
}

// Discard removes a staged upload. Missing files are not an error; staged
// uploads are throwaway.
func (s *Store) Discard(path string) {
	os.Remove(path)
}

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// OpenSequence opens a sequence file for reading, transparently
// decompressing gzip input. Gzip is detected by magic number (1F 8B) or by
// a .gz suffix.
func OpenSequence(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	_, _ = fh.Seek(0, io.SeekStart)
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := pgzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}

// SaveGenbank writes rec to <outputDir>/<locus>.json as indented JSON and
// returns the path. Collections render as [] rather than null, the same as
// parsed records.
func (s *Store) SaveGenbank(rec genbank.GenbankRecord) (string, error) {
	if rec.Locus == "" {
		return "", fmt.Errorf("save genbank: record has no locus")
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}
	if rec.References == nil {
		rec.References = []genbank.Reference{}
	}
	if rec.Features == nil {
		rec.Features = []genbank.Feature{}
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("save genbank: %w", err)
	}
	path := filepath.Join(s.outputDir, filepath.Base(rec.Locus)+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("save genbank: %w", err)
	}
	return path, nil
}

// SaveFasta writes rec to <outputDir>/<header>.fasta and returns the path.
func (s *Store) SaveFasta(rec fasta.FastaRecord) (string, error) {
	if rec.Header == "" {
		return "", fmt.Errorf("save fasta: record has no header")
	}
	path := filepath.Join(s.outputDir, filepath.Base(rec.Header)+".fasta")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save fasta: %w", err)
	}
	if err := fasta.WriteFasta(f, rec); err != nil {
		f.Close()
		return "", fmt.Errorf("save fasta: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save fasta: %w", err)
	}
	return path, nil
}

// LoadGenbank reads one saved record back from path.
func LoadGenbank(path string) (genbank.GenbankRecord, error) {
	var rec genbank.GenbankRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("load genbank: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("load genbank %s: %w", path, err)
	}
	return rec, nil
}

// ListGenbank loads every saved record in the output directory, sorted by
// file name. Files that do not decode as records are skipped.
func (s *Store) ListGenbank() ([]genbank.GenbankRecord, error) {
	paths, err := filepath.Glob(filepath.Join(s.outputDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list genbank: %w", err)
	}
	sort.Strings(paths)
	var records []genbank.GenbankRecord
	for _, p := range paths {
		rec, err := LoadGenbank(p)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
