package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// IsJSONOutput reports whether --json was requested.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was requested.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// WriteOutput encodes value as indented JSON, or one object per line with
// --jsonl when value is a slice.
func WriteOutput(out io.Writer, value any) error {
	if IsJSONLOutput() {
		return writeJSONLines(out, value)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func writeJSONLines(out io.Writer, value any) error {
	enc := json.NewEncoder(out)

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return enc.Encode(value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := enc.Encode(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	}
	return nil
}
