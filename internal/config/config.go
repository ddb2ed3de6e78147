// Package config loads the optional loom.config.yaml, applies defaults,
// and validates the result before anything else in the engine sees it.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every ambient setting a loom run needs. A loaded file
// takes precedence over the defaults returned by Default; no CLI flag
// sets any of these fields.
type Config struct {
	PublicDir      string `yaml:"publicDir" validate:"required"`
	DistDir        string `yaml:"distDir" validate:"required"`
	CacheDir       string `yaml:"cacheDir" validate:"required"`
	DevServerPort  int    `yaml:"devServerPort" validate:"gte=0,lte=65535"`
	LiveReloadPort int    `yaml:"liveReloadPort" validate:"gte=0,lte=65535"`
	GeneratorName  string `yaml:"generatorName" validate:"required"`
}

// Default returns the built-in configuration used when no loom.config.yaml
// is present.
func Default() Config {
	return Config{
		PublicDir:      "public",
		DistDir:        "dist",
		CacheDir:       ".cache",
		DevServerPort:  8080,
		LiveReloadPort: 1337,
		GeneratorName:  "loom",
	}
}

// Load reads path (if it exists) over Default(), then validates the
// result. A missing file is not an error: it simply means the defaults
// stand unmodified.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, validate(cfg)
		}
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, validate(cfg)
}

func validate(cfg Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
