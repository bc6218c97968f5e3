/*
Package catalog defines the records served by shelfserve and the
file-backed catalog source that feeds them into the index.

A catalog is a plain list of records. Fetching and paginating it from a
remote store is someone else's job; this package only reads snapshots
that were already written to disk, in JSON or msgpack, optionally zstd
compressed:

	books.json
	books.msgpack
	books.json.zst

Watcher re-reads the snapshot whenever the file changes and hands the
result to a reload callback, usually Engine.BuildIndex.
*/
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Record is one titled work in the catalog.
// Records are treated as immutable once handed to the index.
type Record struct {
	ID       string   `json:"id" msgpack:"id"`
	Title    string   `json:"title" msgpack:"title"`
	Author   string   `json:"author" msgpack:"author"`
	Subjects []string `json:"subjects,omitempty" msgpack:"subjects,omitempty"`
}

// ErrInvalidInput is matched by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError describes the first record that failed validation.
// Position is -1 when the failure could not be tied to one record,
// e.g. a snapshot that does not decode as a list of records.
type InvalidInputError struct {
	Position int
	ID       string
	Field    string
	Reason   string
}

func (e *InvalidInputError) Error() string {
	switch {
	case e.Position < 0 && e.Field == "":
		return fmt.Sprintf("invalid input: %s", e.Reason)
	case e.Position < 0:
		return fmt.Sprintf("invalid input: field %q: %s", e.Field, e.Reason)
	case e.ID == "":
		return fmt.Sprintf("invalid input: record %d: field %q: %s", e.Position, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid input: record %d (id %q): field %q: %s", e.Position, e.ID, e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// Validate checks a whole batch before anything is indexed.
// id, title and author are required, ids must be unique within the batch.
func Validate(records []Record) error {
	seen := make(map[string]int, len(records))

	for i, r := range records {
		if strings.TrimSpace(r.ID) == "" {
			return &InvalidInputError{Position: i, Field: "id", Reason: "required"}
		}
		if prev, dup := seen[r.ID]; dup {
			return &InvalidInputError{
				Position: i,
				ID:       r.ID,
				Field:    "id",
				Reason:   fmt.Sprintf("duplicate of record %d", prev),
			}
		}
		seen[r.ID] = i

		if err := requireText(i, r.ID, "title", r.Title); err != nil {
			return err
		}
		if err := requireText(i, r.ID, "author", r.Author); err != nil {
			return err
		}
		for _, s := range r.Subjects {
			if !utf8.ValidString(s) {
				return &InvalidInputError{Position: i, ID: r.ID, Field: "subjects", Reason: "malformed utf-8"}
			}
		}
	}
	return nil
}

func requireText(pos int, id, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &InvalidInputError{Position: pos, ID: id, Field: field, Reason: "required"}
	}
	if !utf8.ValidString(value) {
		return &InvalidInputError{Position: pos, ID: id, Field: field, Reason: "malformed utf-8"}
	}
	return nil
}
