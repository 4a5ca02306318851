package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	clear "github.com/J3rome/CLEAR-AQA-Dataset-Generator"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/adapters/redis"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/balance"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/ports"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/render"
)

// Config is the file-based run configuration. Flags override file values.
type Config struct {
	Seed          int64          `yaml:"seed"`
	Budget        int            `yaml:"budget" validate:"gte=0"`
	MaxPerPair    int            `yaml:"max_per_template_per_scene" validate:"gte=0"`
	Workers       int            `yaml:"workers" validate:"gte=0,lte=256"`
	Tolerance     float64        `yaml:"tolerance" validate:"gte=0,lte=1"`
	PatternPolicy string         `yaml:"pattern_policy" validate:"omitempty,oneof=round_robin random"`
	Targets       []TargetConfig `yaml:"targets" validate:"dive"`
	Redis         *RedisConfig   `yaml:"redis"`
}

// TargetConfig is one bucket of the target answer distribution.
type TargetConfig struct {
	Family string  `yaml:"family" validate:"required"`
	Answer string  `yaml:"answer" validate:"required"`
	Share  float64 `yaml:"share" validate:"gt=0,lte=1"`
}

// RedisConfig enables the shared controller store for distributed runs.
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
	Prefix   string `yaml:"prefix"`
}

// loadConfig reads and validates the YAML run configuration. A missing path
// yields the zero config.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Tolerance: 0.05}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// options converts the config into engine options.
func (c *Config) options(lexicon render.Lexicon) []clear.Option {
	opts := []clear.Option{
		clear.WithSeed(c.Seed),
		clear.WithLexicon(lexicon),
		clear.WithTolerance(c.Tolerance),
	}
	if c.Budget > 0 {
		opts = append(opts, clear.WithBudget(c.Budget))
	}
	if c.MaxPerPair > 0 {
		opts = append(opts, clear.WithMaxPerPair(c.MaxPerPair))
	}
	if c.Workers > 0 {
		opts = append(opts, clear.WithWorkers(c.Workers))
	}
	if c.PatternPolicy == "random" {
		opts = append(opts, clear.WithPatternPolicy(render.PolicyRandom))
	}
	if len(c.Targets) > 0 {
		targets := make(balance.Targets, len(c.Targets))
		for _, t := range c.Targets {
			targets[ports.Bucket{Family: t.Family, Answer: t.Answer}] = t.Share
		}
		opts = append(opts, clear.WithTargets(targets))
	}
	if c.Redis != nil {
		storeOpts := []redis.Option{}
		if c.Redis.Prefix != "" {
			storeOpts = append(storeOpts, redis.WithPrefix(c.Redis.Prefix))
		}
		store := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB, storeOpts...)
		opts = append(opts, clear.WithTallyStore(store))
	}
	return opts
}
