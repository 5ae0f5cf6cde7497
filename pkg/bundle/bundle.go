package bundle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"strategos-hq/riskengine/pkg/store"
)

// MaxFileSize bounds bundle files read from disk.
const MaxFileSize = 1 << 20

//go:embed baseline.yaml
var baselineYAML []byte

// Bundle is a complete model version in file form.
type Bundle struct {
	ModelVersion  ModelVersion           `yaml:"model_version"`
	Metrics       []store.NewMetric      `yaml:"metrics,omitempty"`
	Coefficients  []store.NewCoefficient `yaml:"coefficients,omitempty"`
	Rules         []store.NewRule        `yaml:"rules,omitempty"`
	States        []store.NewState       `yaml:"states"`
	Templates     []Template             `yaml:"templates,omitempty"`
	Restructuring []Binding              `yaml:"restructuring,omitempty"`
}

// ModelVersion names the model version a bundle creates.
type ModelVersion struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Activate makes the new version the tenant's active version once
	// everything is created.
	Activate bool `yaml:"activate,omitempty"`
}

// Template is a restructuring template. Payload may be written as a YAML
// mapping or as a JSON string.
type Template struct {
	Name    string    `yaml:"name"`
	Payload yaml.Node `yaml:"payload"`
}

// Binding attaches a template to a state by name. An empty State binds the
// template to the critical state.
type Binding struct {
	Template string `yaml:"template"`
	State    string `yaml:"state,omitempty"`
}

// LoadError reports a bundle file that could not be read or decoded.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bundle %s: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("bundle %s: %s", e.FilePath, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Parse decodes a bundle. Unknown fields are rejected.
func Parse(data []byte) (*Bundle, error) {
	if !utf8.Valid(data) {
		return nil, errors.New("bundle contains invalid UTF-8 encoding")
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("bundle is empty")
		}
		return nil, fmt.Errorf("failed to parse bundle: %w", err)
	}
	return &b, nil
}

// LoadFile reads and parses a bundle file. It does not validate it.
func LoadFile(path string) (*Bundle, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}

	b, err := Parse(data)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid bundle", Cause: err}
	}
	return b, nil
}

// Baseline returns the deterministic baseline model shipped with the engine.
func Baseline() *Bundle {
	b, err := Parse(baselineYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded baseline bundle: %v", err))
	}
	return b
}

// PayloadJSON returns the template payload as compact JSON.
func (t *Template) PayloadJSON() (json.RawMessage, error) {
	var raw []byte

	switch t.Payload.Kind {
	case 0:
		return nil, errors.New("payload is required")
	case yaml.ScalarNode:
		raw = []byte(t.Payload.Value)
	default:
		var v any
		if err := t.Payload.Decode(&v); err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("payload is not valid JSON: %w", err)
	}
	return json.RawMessage(compact.Bytes()), nil
}
