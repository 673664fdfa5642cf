// Package taskfile reads raw task batches from JSON, YAML and TOML
// documents. A document is either a bare list of task records or an object
// with a "tasks" list plus optional "strategy" and "weights".
package taskfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/sextant/internal/scoring"
	"github.com/papapumpkin/sextant/internal/task"
)

// Sentinel errors returned by this package.
var (
	// ErrUnsupportedFormat means the file extension is not one of the known
	// formats.
	ErrUnsupportedFormat = errors.New("taskfile: unsupported format")
	// ErrNoTasks means the document carries no task list at all. An empty
	// list is not an error.
	ErrNoTasks = errors.New("taskfile: no tasks provided")
	// ErrInvalidDocument means the document is neither a list nor an object.
	ErrInvalidDocument = errors.New("taskfile: document must be a list of tasks or an object with a tasks key")
)

// Format is a supported document encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// FormatFor picks a format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Batch is one decoded document.
type Batch struct {
	Tasks []task.Record
	// Strategy is empty when the document does not name one.
	Strategy scoring.Strategy
	// Weights is nil when the document carries no weights object.
	Weights *scoring.Weights
	Source  string
}

// Loader reads batches from a filesystem.
type Loader struct {
	Fs afero.Fs
}

// NewLoader returns a Loader over the OS filesystem.
func NewLoader() Loader {
	return Loader{Fs: afero.NewOsFs()}
}

// Load reads and decodes the file at path.
func (l Loader) Load(path string) (Batch, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Batch{}, err
	}
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return Batch{}, fmt.Errorf("taskfile: read %s: %w", path, err)
	}
	b, err := Parse(format, data)
	if err != nil {
		return Batch{}, fmt.Errorf("taskfile: %s: %w", path, err)
	}
	b.Source = path
	return b, nil
}

// Parse decodes data in the given format.
func Parse(format Format, data []byte) (Batch, error) {
	var doc any
	switch format {
	case JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return Batch{}, fmt.Errorf("decode json: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Batch{}, fmt.Errorf("decode yaml: %w", err)
		}
	case TOML:
		var table map[string]any
		if err := toml.Unmarshal(data, &table); err != nil {
			return Batch{}, fmt.Errorf("decode toml: %w", err)
		}
		doc = tomlValue(table)
	default:
		return Batch{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return FromDocument(doc)
}

// FromDocument interprets an already-decoded document.
func FromDocument(doc any) (Batch, error) {
	switch v := doc.(type) {
	case []any:
		return Batch{Tasks: records(v)}, nil
	case map[string]any:
		raw, ok := v["tasks"]
		if !ok || raw == nil {
			return Batch{}, ErrNoTasks
		}
		list, ok := raw.([]any)
		if !ok {
			return Batch{}, fmt.Errorf("%w: tasks is %T", ErrInvalidDocument, raw)
		}
		b := Batch{Tasks: records(list)}
		if s, ok := v["strategy"]; ok && s != nil {
			b.Strategy = scoring.Strategy(cast.ToString(s))
		}
		if w, ok := v["weights"]; ok && w != nil {
			weights, err := weightsOf(w)
			if err != nil {
				return Batch{}, err
			}
			b.Weights = &weights
		}
		return b, nil
	case nil:
		return Batch{}, ErrNoTasks
	default:
		return Batch{}, fmt.Errorf("%w: got %T", ErrInvalidDocument, doc)
	}
}

// records converts list elements to task records. Elements that are not
// objects become empty records so the normalizer reports them by index.
func records(list []any) []task.Record {
	out := make([]task.Record, len(list))
	for i, item := range list {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			m = map[string]any{}
		}
		out[i] = task.Record(m)
	}
	return out
}

// weightsOf reads the four named weights. Missing keys are zero.
func weightsOf(v any) (scoring.Weights, error) {
	m, err := cast.ToStringMapE(v)
	if err != nil {
		return scoring.Weights{}, fmt.Errorf("%w: weights must be an object", ErrInvalidDocument)
	}
	var w scoring.Weights
	fields := map[string]*float64{
		"urgency":    &w.Urgency,
		"importance": &w.Importance,
		"effort":     &w.Effort,
		"dependency": &w.Dependency,
	}
	for key, dst := range fields {
		raw, ok := m[key]
		if !ok || raw == nil {
			continue
		}
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return scoring.Weights{}, fmt.Errorf("%w: weight %s: %v", ErrInvalidDocument, key, err)
		}
		*dst = f
	}
	return w, nil
}

// tomlValue rewrites TOML local dates into YYYY-MM-DD strings and
// normalizes nested tables and arrays into plain maps and slices.
func tomlValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = tomlValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = tomlValue(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = tomlValue(val)
		}
		return out
	case toml.LocalDate:
		return x.String()
	case toml.LocalDateTime:
		return x.LocalDate.String()
	default:
		return v
	}
}
