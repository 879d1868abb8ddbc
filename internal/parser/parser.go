// Package parser decodes signal batch files (JSON or YAML).
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/checksum"
	"github.com/starford/subtaste/internal/signal"
)

// Format is the encoding of a batch file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension. Unknown extensions are
// sniffed: a leading '{' means JSON.
func FormatOf(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return FormatJSON
	}
	return FormatYAML
}

// Result holds a decoded batch.
type Result struct {
	Batch  signal.Batch
	Format Format
	// Defaulted counts signals that took the batch source or the fallback
	// timestamp.
	Defaulted int
}

// Parse decodes data as a signal batch. Signals without a source inherit the
// batch source and signals without a timestamp get fallback. A missing batch
// id becomes the content checksum.
func Parse(name string, data []byte, fallback time.Time) (*Result, error) {
	format := FormatOf(name, data)
	raw, err := toJSON(format, data)
	if err != nil {
		return nil, err
	}

	var b signal.Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %s batch: %v", apperr.ErrValidation, format, err)
	}
	if b.BatchID == "" {
		b.BatchID = checksum.Short(data)
	}

	defaulted := 0
	for i := range b.Signals {
		s := &b.Signals[i]
		changed := false
		if s.Source == "" && b.Source != "" {
			s.Source = b.Source
			changed = true
		}
		if s.Timestamp.IsZero() {
			s.Timestamp = fallback
			changed = true
		}
		if changed {
			defaulted++
		}
	}
	return &Result{Batch: b, Format: format, Defaulted: defaulted}, nil
}

// toJSON re-encodes YAML through a generic value so the signal JSON codec
// handles both formats.
func toJSON(format Format, data []byte) ([]byte, error) {
	if format == FormatJSON {
		return data, nil
	}
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: yaml batch: %v", apperr.ErrValidation, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: empty batch file", apperr.ErrValidation)
	}
	v, err := stringKeys(v)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: yaml batch: %v", apperr.ErrValidation, err)
	}
	return out, nil
}

// stringKeys converts map[any]any nodes, which encoding/json rejects, into
// map[string]any.
func stringKeys(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			conv, err := stringKeys(val)
			if err != nil {
				return nil, err
			}
			t[k] = conv
		}
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			conv, err := stringKeys(val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = conv
		}
		return out, nil
	case []any:
		for i, val := range t {
			conv, err := stringKeys(val)
			if err != nil {
				return nil, err
			}
			t[i] = conv
		}
		return t, nil
	default:
		return v, nil
	}
}
