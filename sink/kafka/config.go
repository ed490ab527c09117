package kafka

import (
	"errors"
	"io/fs"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TRANSPIPE_KAFKA__"

type Config struct {
	Brokers      []string `koanf:"brokers"`
	Topic        string   `koanf:"topic"`
	ClientID     string   `koanf:"client_id"`
	Version      string   `koanf:"version"`
	RequiredAcks int16    `koanf:"required_acks"` // 0,1,-1
	Compression  string   `koanf:"compression"`   // none|gzip|snappy|lz4|zstd
	FlushMS      int      `koanf:"flush_ms"`
}

// LoadConfig merges YAML (if present) with env-vars
// (prefix `TRANSPIPE_KAFKA__`, delimiter `__`).
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, cerrors.Wrapf(err, "kafka config %s", path)
		}
	}
	// schema version check (only when YAML is present)
	if sv := k.String("schema_version"); sv != "" && sv != "v1" {
		return Config{}, cerrors.Newf("kafka schema_version %q not supported (want v1)", sv)
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, "__", envValue), nil); err != nil {
		return Config{}, cerrors.Wrap(err, "kafka env")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, cerrors.Wrap(err, "kafka config")
	}
	applyDefaults(&cfg)
	if len(cfg.Brokers) == 0 {
		return cfg, cerrors.New("kafka config: no brokers")
	}
	return cfg, nil
}

// envValue maps TRANSPIPE_KAFKA__REQUIRED_ACKS to required_acks and splits
// comma lists.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if strings.Contains(value, ",") {
		return key, strings.Split(value, ",")
	}
	return key, value
}

func applyDefaults(c *Config) {
	if c.Topic == "" {
		c.Topic = "transpipe.diagnostics"
	}
	if c.ClientID == "" {
		c.ClientID = "transpipe"
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = 1
	}
	if c.Compression == "" {
		c.Compression = "none"
	}
	if c.FlushMS == 0 {
		c.FlushMS = 500
	}
}
