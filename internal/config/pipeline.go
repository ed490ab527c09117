package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"transpipe/internal/manifest"
	"transpipe/internal/pipeline"
)

const SupportedSchema = "v1"

var ErrSchema = errors.New("invalid pipeline manifest")

// LoadPipelineSpec parses a pipeline YAML, validates it and resolves the
// relative tsconfig and report config paths against the manifest directory.
func LoadPipelineSpec(path string) (manifest.File, error) {
	var cfg manifest.File
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read pipeline")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Mark(errors.Wrapf(err, "parse %s", path), ErrSchema)
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SupportedSchema
	}
	if cfg.SchemaVersion != SupportedSchema {
		return cfg, errors.Wrapf(ErrSchema, "schema_version %q not supported (want %q)", cfg.SchemaVersion, SupportedSchema)
	}
	if err := validate(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "%s", path)
	}

	dir := filepath.Dir(path)
	for i := range cfg.Stages {
		cfg.Stages[i].Tsconfig = relativeTo(dir, cfg.Stages[i].Tsconfig)
	}
	cfg.ReportConfigs.Kafka = relativeTo(dir, cfg.ReportConfigs.Kafka)
	return cfg, nil
}

func validate(cfg *manifest.File) error {
	if _, err := pipeline.ParseStrategy(cfg.Strategy); err != nil {
		return errors.Mark(err, ErrSchema)
	}
	switch cfg.Transformer.Type {
	case "":
		cfg.Transformer.Type = manifest.TransformerEsbuild
	case manifest.TransformerEsbuild:
	case manifest.TransformerGRPC:
		if cfg.Transformer.Address == "" {
			return errors.Wrap(ErrSchema, "grpc transformer needs an address")
		}
	default:
		return errors.Wrapf(ErrSchema, "unsupported transformer type %q", cfg.Transformer.Type)
	}
	if cfg.Transformer.TimeoutMS < 0 {
		return errors.Wrap(ErrSchema, "timeout_ms must not be negative")
	}
	if len(cfg.Stages) == 0 {
		return errors.Wrap(ErrSchema, "no stages")
	}
	return nil
}

func relativeTo(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
