package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown document format %q", s)
	}
}

// Parse decodes a document, treating it as JSON when it starts with a brace or bracket.
func Parse(data []byte) (*Spec, error) {
	return Decode(data, sniff(data))
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Decode reads a document in the given format.
func Decode(data []byte, format Format) (*Spec, error) {
	var raw any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse json document: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml document: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
	if raw == nil {
		return nil, &ValidationError{Key: "kind", Reason: "empty document"}
	}
	return FromMap(raw)
}

// FromMap decodes an already unmarshalled document, such as a JSON request field or an
// MCP tool argument.
func FromMap(raw any) (*Spec, error) {
	var spec Spec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.ComposeDecodeHookFunc(liftIntegers, wholeNumbers),
		ErrorUnused: true,
		Result:      &spec,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create document decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode expression document: %w", err)
	}
	return &spec, nil
}

var specType = reflect.TypeOf(Spec{})

// liftIntegers turns a bare number written where an expression is expected into a constant.
func liftIntegers(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != specType && to != reflect.PointerTo(specType) {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return map[string]any{"kind": KindConst, "value": data}, nil
	default:
		return data, nil
	}
}

// wholeNumbers rejects fractional values for integer fields; JSON numbers arrive as float64.
func wholeNumbers(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int || (from.Kind() != reflect.Float64 && from.Kind() != reflect.Float32) {
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("expected integer, got %v", data)
	}
	return int(f), nil
}
