package features

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	// ErrArtifact is returned when the transform artifact is missing or invalid.
	ErrArtifact = errors.New("feature artifact")
	// ErrTransform is returned when the artifact cannot be applied to the data.
	ErrTransform = errors.New("feature transform failed")
)

// Step types understood by Artifact.
const (
	StepStandardScaler = "standard_scaler"
	StepOneHot         = "one_hot"
	StepPassthrough    = "passthrough"
)

// Handling of categories not seen when the transform was fitted.
const (
	UnknownError  = "error"
	UnknownIgnore = "ignore"
)

// ArtifactVersion is the only artifact layout understood.
const ArtifactVersion = 1

// Artifact is a fitted column transform. Its output columns are the outputs
// of each step concatenated in order.
type Artifact struct {
	Version int    `mapstructure:"version"`
	Steps   []Step `mapstructure:"steps"`
}

// Step transforms a group of columns.
type Step struct {
	Type    string   `mapstructure:"type"`
	Columns []string `mapstructure:"columns"`

	// standard_scaler
	Mean  []float64 `mapstructure:"mean"`
	Scale []float64 `mapstructure:"scale"`

	// one_hot
	Categories    [][]string `mapstructure:"categories"`
	HandleUnknown string     `mapstructure:"handle_unknown"`
}

// Width is the number of output columns the step produces.
func (s Step) Width() int {
	if s.Type == StepOneHot {
		n := 0
		for _, c := range s.Categories {
			n += len(c)
		}
		return n
	}
	return len(s.Columns)
}

// LoadArtifact reads and validates a YAML artifact.
func LoadArtifact(path string) (*Artifact, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no artifact path configured", ErrArtifact)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	return ParseArtifact(data)
}

// ParseArtifact decodes and validates artifact YAML.
func ParseArtifact(data []byte) (*Artifact, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse yaml: %v", ErrArtifact, err)
	}

	var a Artifact
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &a,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifact, err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrArtifact, err)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate reports every problem found in the artifact at once.
func (a *Artifact) Validate() error {
	var result *multierror.Error

	if a.Version != ArtifactVersion {
		result = multierror.Append(result, fmt.Errorf("unsupported version %d", a.Version))
	}
	if len(a.Steps) == 0 {
		result = multierror.Append(result, errors.New("no steps"))
	}

	known := make(map[string]bool, len(Columns))
	for _, c := range Columns {
		known[c] = true
	}

	for i, s := range a.Steps {
		if len(s.Columns) == 0 {
			result = multierror.Append(result, fmt.Errorf("step %d: no columns", i))
		}
		for _, c := range s.Columns {
			if !known[c] {
				result = multierror.Append(result, fmt.Errorf("step %d: unknown column %q", i, c))
			}
		}

		switch s.Type {
		case StepStandardScaler:
			if len(s.Mean) != len(s.Columns) || len(s.Scale) != len(s.Columns) {
				result = multierror.Append(result, fmt.Errorf("step %d: mean and scale must have one value per column", i))
			}
			for j, v := range s.Scale {
				if v == 0 {
					result = multierror.Append(result, fmt.Errorf("step %d: zero scale at position %d", i, j))
				}
			}
			for _, c := range s.Columns {
				if categorical[c] {
					result = multierror.Append(result, fmt.Errorf("step %d: cannot scale categorical column %q", i, c))
				}
			}
		case StepOneHot:
			if len(s.Categories) != len(s.Columns) {
				result = multierror.Append(result, fmt.Errorf("step %d: categories must have one list per column", i))
			}
			switch s.HandleUnknown {
			case "", UnknownError, UnknownIgnore:
			default:
				result = multierror.Append(result, fmt.Errorf("step %d: handle_unknown must be %q or %q", i, UnknownError, UnknownIgnore))
			}
		case StepPassthrough:
			for _, c := range s.Columns {
				if categorical[c] {
					result = multierror.Append(result, fmt.Errorf("step %d: cannot pass through categorical column %q", i, c))
				}
			}
		default:
			result = multierror.Append(result, fmt.Errorf("step %d: unknown type %q", i, s.Type))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrArtifact, err)
	}
	return nil
}

// Width is the number of columns the transform outputs.
func (a *Artifact) Width() int {
	n := 0
	for _, s := range a.Steps {
		n += s.Width()
	}
	return n
}
