// Package config loads axiom settings from defaults, an optional YAML file
// and AXIOM_* environment variables, in increasing precedence.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/roach88/axiom/internal/coord"
	"github.com/roach88/axiom/internal/wrapper"
)

// EnvPrefix prefixes every environment override, e.g. AXIOM_LOG_LEVEL.
const EnvPrefix = "AXIOM"

// ErrInvalid is returned when a loaded value fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full configuration tree.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Wrapper WrapperConfig `mapstructure:"wrapper"`
	Space   SpaceConfig   `mapstructure:"space"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// WrapperConfig holds the decision fallbacks.
type WrapperConfig struct {
	DefaultMajor   int      `mapstructure:"default_major"`
	DefaultType    int      `mapstructure:"default_type"`
	DefaultSubtype int      `mapstructure:"default_subtype"`
	BranchLabels   []string `mapstructure:"branch_labels"`
	Truncate       int      `mapstructure:"truncate"`
}

// SpaceConfig holds derivation defaults.
type SpaceConfig struct {
	NeighborDistance int `mapstructure:"neighbor_distance"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := wrapper.DefaultSettings()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("wrapper.default_major", d.Major)
	v.SetDefault("wrapper.default_type", d.Type)
	v.SetDefault("wrapper.default_subtype", d.Subtype)
	v.SetDefault("wrapper.branch_labels", d.BranchLabels)
	v.SetDefault("wrapper.truncate", d.Truncate)
	v.SetDefault("space.neighbor_distance", 2)
}

// New returns a viper instance with defaults and environment binding;
// no file is read.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads path (YAML) if non-empty, then applies env overrides and
// validates. An empty path yields defaults plus env.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges. Log level names are checked by logging.New.
func (c *Config) Validate() error {
	w := c.Wrapper
	if w.DefaultMajor < coord.MinMajor || w.DefaultMajor > coord.MaxMajor {
		return errors.Wrapf(ErrInvalid, "wrapper.default_major %d not in %d..%d", w.DefaultMajor, coord.MinMajor, coord.MaxMajor)
	}
	if w.DefaultType < coord.MinType || w.DefaultType > coord.MaxType {
		return errors.Wrapf(ErrInvalid, "wrapper.default_type %d not in %d..%d", w.DefaultType, coord.MinType, coord.MaxType)
	}
	if w.DefaultSubtype < coord.MinSubtype || w.DefaultSubtype > coord.MaxSubtype {
		return errors.Wrapf(ErrInvalid, "wrapper.default_subtype %d not in %d..%d", w.DefaultSubtype, coord.MinSubtype, coord.MaxSubtype)
	}
	if len(w.BranchLabels) == 0 {
		return errors.Wrap(ErrInvalid, "wrapper.branch_labels must not be empty")
	}
	if w.Truncate <= 0 {
		return errors.Wrapf(ErrInvalid, "wrapper.truncate must be positive, got %d", w.Truncate)
	}
	if d := c.Space.NeighborDistance; d < 0 || d > 4 {
		return errors.Wrapf(ErrInvalid, "space.neighbor_distance %d not in 0..4", d)
	}
	return nil
}

// WrapperSettings converts the wrapper section.
func (c *Config) WrapperSettings() wrapper.Settings {
	return wrapper.Settings{
		Major:        c.Wrapper.DefaultMajor,
		Type:         c.Wrapper.DefaultType,
		Subtype:      c.Wrapper.DefaultSubtype,
		BranchLabels: append([]string(nil), c.Wrapper.BranchLabels...),
		Truncate:     c.Wrapper.Truncate,
	}
}
