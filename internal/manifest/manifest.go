// Package manifest is the YAML schema of a pipeline file.
package manifest

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"transpipe/internal/stage"
)

const (
	TransformerEsbuild = "esbuild"
	TransformerGRPC    = "grpc"
)

type File struct {
	SchemaVersion string `yaml:"schema_version"`
	// chain (default) or merged
	Strategy    string          `yaml:"strategy"`
	Transformer TransformerSpec `yaml:"transformer"`

	// Ordered stage list; first match decides the kind.
	Stages []StageSpec `yaml:"stages"`

	Reports       []string      `yaml:"reports"`
	ReportConfigs ReportConfigs `yaml:"report_configs"`
	Output        OutputSpec    `yaml:"output"`
}

type TransformerSpec struct {
	Type      string `yaml:"type"`    // "esbuild" or "grpc"
	Address   string `yaml:"address"` // e.g. "localhost:50051"
	TimeoutMS int    `yaml:"timeout_ms"`
	Color     bool   `yaml:"color"`
}

type ReportConfigs struct {
	Kafka  string       `yaml:"kafka"` // path to the sink's own YAML
	Stdout StdoutReport `yaml:"stdout"`
}

type StdoutReport struct {
	PrintCounter bool `yaml:"print_counter"`
}

type OutputSpec struct {
	Sourcemap bool `yaml:"sourcemap"`
}

// StageSpec is one stage entry. Keys other than the selector keys land in
// Options untouched.
type StageSpec struct {
	Loader   string
	Include  Patterns
	Exclude  Patterns
	Output   bool
	Tsconfig string
	Options  map[string]any
}

func (s *StageSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Newf("line %d: stage must be a mapping", node.Line)
	}
	*s = StageSpec{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "loader":
			err = val.Decode(&s.Loader)
		case "include":
			err = val.Decode(&s.Include)
		case "exclude":
			err = val.Decode(&s.Exclude)
		case "output":
			err = val.Decode(&s.Output)
		case "tsconfig":
			err = val.Decode(&s.Tsconfig)
		default:
			var v any
			if err = val.Decode(&v); err == nil {
				if s.Options == nil {
					s.Options = map[string]any{}
				}
				s.Options[key] = v
			}
		}
		if err != nil {
			return errors.Wrapf(err, "line %d: stage key %q", val.Line, key)
		}
	}
	return nil
}

// Config converts the entry to the selector model.
func (s StageSpec) Config() stage.Config {
	return stage.Config{
		Kind:     stage.Kind(s.Loader),
		Output:   s.Output,
		Include:  s.Include,
		Exclude:  s.Exclude,
		Tsconfig: s.Tsconfig,
		Options:  stage.Options(s.Options).Clone(),
	}
}

func (f File) StageConfigs() []stage.Config {
	out := make([]stage.Config, len(f.Stages))
	for i, s := range f.Stages {
		out[i] = s.Config()
	}
	return out
}

// Patterns accepts a single pattern or a list. An explicit empty list stays
// non-nil so it is not replaced by the defaults.
type Patterns []string

func (p *Patterns) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*p = Patterns{s}
	case yaml.SequenceNode:
		var xs []string
		if err := node.Decode(&xs); err != nil {
			return err
		}
		if xs == nil {
			xs = []string{}
		}
		*p = xs
	default:
		return errors.Newf("line %d: want a pattern or a list of patterns", node.Line)
	}
	return nil
}
