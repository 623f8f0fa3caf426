// Package loader reads demes demographic models from their YAML
// interchange format, resolves defaults and omitted fields, and builds a
// validated model.Graph. Malformed YAML fails with ErrParse; structural
// violations surface as model.ErrInvalidModel.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/demes-dev/demes-go/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrParse indicates a malformed model file: YAML syntax errors, unknown
// fields, or values of the wrong type.
var ErrParse = errors.New("parse error")

// yamlEpoch mirrors one epoch entry. Pointer fields distinguish omitted
// values from explicit zeros.
type yamlEpoch struct {
	EndTime      *float64 `yaml:"end_time"`
	StartSize    *float64 `yaml:"start_size"`
	EndSize      *float64 `yaml:"end_size"`
	SizeFunction string   `yaml:"size_function"`
}

type yamlDeme struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	StartTime   *float64    `yaml:"start_time"`
	Ancestors   []string    `yaml:"ancestors"`
	Proportions []float64   `yaml:"proportions"`
	Epochs      []yamlEpoch `yaml:"epochs"`
	Defaults    struct {
		Epoch yamlEpochDefaults `yaml:"epoch"`
	} `yaml:"defaults"`
}

type yamlEpochDefaults struct {
	StartSize    *float64 `yaml:"start_size"`
	EndSize      *float64 `yaml:"end_size"`
	SizeFunction string   `yaml:"size_function"`
}

type yamlDemeDefaults struct {
	Description string    `yaml:"description"`
	StartTime   *float64  `yaml:"start_time"`
	Ancestors   []string  `yaml:"ancestors"`
	Proportions []float64 `yaml:"proportions"`
}

// yamlMigration covers both forms: asymmetric (source + dest) and
// symmetric (demes list), expanded later into asymmetric pairs.
type yamlMigration struct {
	Source    string   `yaml:"source"`
	Dest      string   `yaml:"dest"`
	Demes     []string `yaml:"demes"`
	Rate      *float64 `yaml:"rate"`
	StartTime *float64 `yaml:"start_time"`
	EndTime   *float64 `yaml:"end_time"`
}

type yamlPulse struct {
	Sources     []string  `yaml:"sources"`
	Dest        string    `yaml:"dest"`
	Time        *float64  `yaml:"time"`
	Proportions []float64 `yaml:"proportions"`
}

type yamlGraph struct {
	Description    string   `yaml:"description"`
	Doi            []string `yaml:"doi"`
	TimeUnits      string   `yaml:"time_units"`
	GenerationTime *float64 `yaml:"generation_time"`
	Defaults       struct {
		Epoch yamlEpochDefaults `yaml:"epoch"`
		Deme  yamlDemeDefaults  `yaml:"deme"`
	} `yaml:"defaults"`
	Demes      []yamlDeme      `yaml:"demes"`
	Migrations []yamlMigration `yaml:"migrations"`
	Pulses     []yamlPulse     `yaml:"pulses"`
}

// Load reads and resolves a model from a YAML file.
func Load(path string) (*model.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	g, err := Loads(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Loads reads and resolves a model from YAML text.
func Loads(text string) (*model.Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(text)))
	dec.KnownFields(true)

	var raw yamlGraph
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrParse)
		}
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return resolve(&raw)
}
