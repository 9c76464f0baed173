package genbank

// Package genbank parses the GenBank flat-file format into typed records.
// The grammar is line oriented: a record is a series of keyword-started
// sections, each tolerating wrapped continuation lines at fixed indents.
// Parsing is deliberately permissive; lines no section claims are dropped.

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// GenbankRecord is one parsed GenBank entry. The JSON field order matches
// the documents written by the save endpoints.
type GenbankRecord struct {
	Locus            string      `json:"locus"`
	Size             int         `json:"size"`
	MoleculeType     string      `json:"molecule_type"`
	GenbankDivision  string      `json:"genbank_division"`
	ModificationDate string      `json:"modification_date"`
	Definition       string      `json:"definition"`
	Accession        string      `json:"accession"`
	Version          string      `json:"version"`
	Keywords         []string    `json:"keywords"`
	Source           string      `json:"source"`
	Organism         string      `json:"organism"`
	Taxonomy         string      `json:"taxonomy"`
	References       []Reference `json:"references"`
	Features         []Feature   `json:"features"`
	Sequence         string      `json:"sequence"`
	Comment          string      `json:"comment,omitempty"`
	Primary          string      `json:"primary,omitempty"`
}

// Feature is an annotated region of the sequence. The location expression is
// kept raw; qualifier values are kept as per-line fragments (see Qualifiers).
type Feature struct {
	FeatureType string     `json:"feature_type"`
	Location    string     `json:"location"`
	Qualifiers  Qualifiers `json:"qualifiers"`
}

// Reference is one literature reference block. Sub-fields hold at most one
// value each; wrapped continuation lines past the first are not collected.
type Reference struct {
	Citation string `json:"citation,omitempty"`
	Authors  string `json:"authors,omitempty"`
	Title    string `json:"title,omitempty"`
	Journal  string `json:"journal,omitempty"`
	PubMed   string `json:"pubmed,omitempty"`
}

// Qualifiers maps qualifier keys to ordered fragment lists, preserving the
// order in which keys first appear on a feature. The first fragment of a key
// is the value from its /key=value line; each wrapped continuation line adds
// one more fragment. Fragments are never joined here: the join rule (empty
// for sequences, space for prose) is the caller's call.
type Qualifiers struct {
	keys   []string
	values map[string][]string
}

// Set stores a fresh single-fragment list under key. A key set twice keeps
// its original position.
func (q *Qualifiers) Set(key, value string) {
	q.put(key, []string{value})
}

func (q *Qualifiers) put(key string, fragments []string) {
	if q.values == nil {
		q.values = make(map[string][]string)
	}
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = fragments
}

// AppendLast adds fragment under the most recently added key. No-op when no
// qualifier has been set yet.
func (q *Qualifiers) AppendLast(fragment string) {
	if len(q.keys) == 0 {
		return
	}
	k := q.keys[len(q.keys)-1]
	q.values[k] = append(q.values[k], fragment)
}

// Get returns the fragment list stored under key.
func (q *Qualifiers) Get(key string) ([]string, bool) {
	v, ok := q.values[key]
	return v, ok
}

// Keys returns the qualifier keys in insertion order.
func (q *Qualifiers) Keys() []string { return q.keys }

// Len returns the number of distinct keys.
func (q *Qualifiers) Len() int { return len(q.keys) }

// MarshalJSON renders the mapping as a JSON object with keys in insertion
// order; an empty mapping renders as {}.
func (q Qualifiers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range q.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(q.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object token by token so that key order
// survives a round trip through saved record files.
func (q *Qualifiers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("qualifiers: expected object, got %v", tok)
	}
	q.keys = nil
	q.values = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("qualifiers: expected string key, got %v", keyTok)
		}
		var fragments []string
		if err := dec.Decode(&fragments); err != nil {
			return fmt.Errorf("qualifiers %q: %w", key, err)
		}
		q.put(key, fragments)
	}
	_, err = dec.Token()
	return err
}
