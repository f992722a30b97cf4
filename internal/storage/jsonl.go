// Package storage persists the knowledge graph as JSONL files and queries it
// through a SQLite index rebuilt from them.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// MaxJSONLLineCapacity bounds a single JSONL record. Protein sequences make
// node lines long.
const MaxJSONLLineCapacity = 1024 * 1024

// File names inside the repository's .pdbkg directory.
const (
	NodesFile = "nodes.jsonl"
	EdgesFile = "edges.jsonl"
)

// validatable is satisfied by *node.Node and *edge.Edge.
type validatable[T any] interface {
	*T
	Validate() error
}

// readJSONL decodes one record per non-blank line and validates each.
// A missing file is an empty collection.
func readJSONL[T any, P validatable[T]](path, what string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %ss file: %w", what, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), MaxJSONLLineCapacity)

	var out []T
	for line := 1; sc.Scan(); line++ {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", line, err)
		}
		if err := P(&rec).Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s at line %d: %w", what, line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %ss file: %w", what, err)
	}
	return out, nil
}

// writeJSONL replaces path with one encoded record per line.
func writeJSONL[T any](path string, recs []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for i, rec := range recs {
		if err := writeJSONLine(w, rec); err != nil {
			f.Close()
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// appendJSONL adds rec as the last line of path, creating it if needed.
func appendJSONL(path string, rec any) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening %s for append: %w", path, err)
	}
	if err := writeJSONLine(f, rec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSONLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// upsert replaces the first element with the same key as rec, or appends it.
// The bool reports whether an element was replaced.
func upsert[T any, K comparable](recs []T, rec T, key func(T) K) ([]T, bool) {
	k := key(rec)
	for i := range recs {
		if key(recs[i]) == k {
			recs[i] = rec
			return recs, true
		}
	}
	return append(recs, rec), false
}
