package config

import (
	"fmt"
	"strings"

	"github.com/Another0Noob/comictag/internal/comicinfo"
	"github.com/Another0Noob/comictag/internal/overrides"
	"github.com/go-playground/validator/v10"
	"gopkg.in/ini.v1"
)

type Config struct {
	Log   LogConfig
	Batch BatchConfig
	// Metadata holds default overrides from the [metadata] section.
	Metadata comicinfo.Record
}

type LogConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

type BatchConfig struct {
	// Throttle is the maximum number of files processed per second. Zero disables it.
	Throttle           float64 `validate:"gte=0"`
	ReplaceExisting    bool
	DeleteConvertedRar bool
}

var validate = validator.New()

func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
	}
}

// Load reads an ini file. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	sec := f.Section("log")
	cfg.Log.Level = strings.ToLower(sec.Key("level").MustString(cfg.Log.Level))

	sec = f.Section("batch")
	if cfg.Batch.Throttle, err = floatKey(sec, "throttle", 0); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Batch.ReplaceExisting, err = boolKey(sec, "replace_existing"); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Batch.DeleteConvertedRar, err = boolKey(sec, "delete_converted_rar"); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	if f.HasSection("metadata") {
		cfg.Metadata, err = overrides.FromSection(f.Section("metadata"))
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func floatKey(sec *ini.Section, name string, def float64) (float64, error) {
	if !sec.HasKey(name) {
		return def, nil
	}
	v, err := sec.Key(name).Float64()
	if err != nil {
		return def, fmt.Errorf("[%s] %s: %w", sec.Name(), name, err)
	}
	return v, nil
}

func boolKey(sec *ini.Section, name string) (bool, error) {
	if !sec.HasKey(name) {
		return false, nil
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		return false, fmt.Errorf("[%s] %s: %w", sec.Name(), name, err)
	}
	return v, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
		}
		return err
	}
	return nil
}
