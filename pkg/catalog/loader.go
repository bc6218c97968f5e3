package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Format is the encoding of a catalog snapshot.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	}
	return "unknown"
}

// DetectFormat derives the encoding from the file name.
// A trailing .zst marks the file as zstd compressed.
func DetectFormat(path string) (format Format, compressed bool) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, ".zst") {
		compressed = true
		name = strings.TrimSuffix(name, ".zst")
	}
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed
	case ".msgpack", ".mpk":
		return FormatMsgpack, compressed
	}
	return FormatUnknown, compressed
}

// LoadFile reads a whole catalog snapshot from disk.
func LoadFile(path string) ([]Record, error) {
	format, compressed := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("catalog %s: unsupported file extension", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: zstd reader: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}

	records, err := Decode(r, format)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d records from %s (%s, compressed=%t)", len(records), path, format, compressed)
	return records, nil
}

// Decode reads a list of records. Payloads that are not shaped like a
// list of records are reported as *InvalidInputError.
func Decode(r io.Reader, format Format) ([]Record, error) {
	var records []Record

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, shapeError(err)
		}
	case FormatMsgpack:
		if err := msgpack.NewDecoder(r).Decode(&records); err != nil {
			return nil, shapeError(err)
		}
	default:
		return nil, fmt.Errorf("decoding catalog: unsupported format %s", format)
	}
	return records, nil
}

func shapeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &InvalidInputError{
			Position: -1,
			Field:    typeErr.Field,
			Reason:   fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
		}
	}
	return &InvalidInputError{Position: -1, Reason: err.Error()}
}
