package db

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed snapshot.schema.json
var snapshotSchemaJSON string

const snapshotSchemaURL = "snapshot.schema.json"

var (
	snapshotSchemaOnce sync.Once
	snapshotSchema     *jsonschema.Schema
	snapshotSchemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	snapshotSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(snapshotSchemaURL, strings.NewReader(snapshotSchemaJSON)); err != nil {
			snapshotSchemaErr = fmt.Errorf("add snapshot schema: %w", err)
			return
		}
		snapshotSchema, snapshotSchemaErr = compiler.Compile(snapshotSchemaURL)
	})
	return snapshotSchema, snapshotSchemaErr
}

// validateSchema checks a raw snapshot document against the embedded schema.
func validateSchema(data []byte) []error {
	schema, err := compiledSchema()
	if err != nil {
		return []error{&ValidationError{Err: err}}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []error{&ValidationError{Err: fmt.Errorf("parse: %w", err)}}
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []error{&ValidationError{Err: err}}
	}

	var problems []error
	collectSchemaErrors(&problems, ve)
	return problems
}

func collectSchemaErrors(problems *[]error, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		*problems = append(*problems, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(problems, cause)
	}
}

// jsonPointerToPath renders "/epics/3/stories/0" as "epics.3.stories[0]".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var b strings.Builder
	parts := strings.Split(ptr, "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		// the only arrays are epic story lists: epics/<id>/stories/<idx>
		if idx, err := strconv.Atoi(part); err == nil && i > 0 && parts[i-1] == "stories" && i >= 3 {
			fmt.Fprintf(&b, "[%d]", idx)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	return b.String()
}
