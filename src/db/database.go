package db

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Database is the persistence port behind the Store. Read is called once at
// startup; Write receives the full snapshot after every mutation.
type Database interface {
	Read() (*DBState, error)
	Write(state *DBState) error
}

// JSONFileDatabase stores the snapshot as a single JSON document.
type JSONFileDatabase struct {
	FilePath string
	// SchemaCheck validates the raw document against the embedded JSON Schema
	// before decoding.
	SchemaCheck bool
}

// Read loads the snapshot. A missing file yields an empty snapshot.
func (d *JSONFileDatabase) Read() (*DBState, error) {
	data, err := os.ReadFile(d.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDBState(), nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", d.FilePath, err)
	}

	state, problems := decodeSnapshot(data, d.SchemaCheck)
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, d.FilePath, errors.Join(problems...))
	}
	return state, nil
}

// Write replaces the snapshot file atomically (temp file + rename).
func (d *JSONFileDatabase) Write(state *DBState) error {
	data, err := encodeSnapshot(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(d.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(d.FilePath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanupTmp := true
	defer func() {
		if cleanupTmp {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp snapshot file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, d.FilePath); err != nil {
		return fmt.Errorf("failed to publish snapshot file: %w", err)
	}
	cleanupTmp = false
	return nil
}

// Check validates the snapshot file and returns every problem found.
// An absent file has no problems.
func (d *JSONFileDatabase) Check() ([]error, error) {
	data, err := os.ReadFile(d.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot %s: %w", d.FilePath, err)
	}
	_, problems := decodeSnapshot(data, true)
	return problems, nil
}

func encodeSnapshot(state *DBState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeSnapshot parses data and collects schema and integrity problems.
// The returned state is only usable when no problems are reported.
func decodeSnapshot(data []byte, schemaCheck bool) (*DBState, []error) {
	if schemaCheck {
		if problems := validateSchema(data); len(problems) > 0 {
			return nil, problems
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	state := NewDBState()
	if err := dec.Decode(state); err != nil {
		return nil, []error{&ValidationError{Err: fmt.Errorf("parse: %w", err)}}
	}
	state.ensureMaps()

	return state, state.CheckIntegrity()
}
