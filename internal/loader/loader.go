// Package loader parses raw submission bytes into a single RawRecord.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/arjunverma/scoresight/internal/model"
)

// ErrEmptyOrInvalidShape reports a document that parsed cleanly but does not
// contain a usable record: an empty array, a scalar, or an array whose first
// element is not an object. It means "no data", not a hard failure.
var ErrEmptyOrInvalidShape = errors.New("data is not in the expected array or object format, or is empty")

// Load parses data as JSON and returns the contained record. Some producers
// wrap the record in a singleton array; the first element is taken in that
// case. A bare object is returned directly.
func Load(data []byte) (*model.RawRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyOrInvalidShape
	}

	switch trimmed[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		if len(elems) == 0 {
			return nil, ErrEmptyOrInvalidShape
		}
		rec, err := decodeRecord(elems[0])
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded record from array wrapper", "elements", len(elems))
		return rec, nil
	case '{':
		rec, err := decodeRecord(trimmed)
		if err != nil {
			return nil, err
		}
		slog.Debug("loaded record as object")
		return rec, nil
	default:
		// Scalar or other top-level value. Still verify it is valid JSON so
		// syntax errors are reported as such.
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
		return nil, ErrEmptyOrInvalidShape
	}
}

// LoadFile reads a submission file and parses it with Load.
func LoadFile(path string) (*model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	rec, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rec, nil
}

func decodeRecord(raw json.RawMessage) (*model.RawRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrEmptyOrInvalidShape
	}
	var rec model.RawRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
