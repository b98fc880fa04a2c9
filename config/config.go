// Package config loads typed configuration from environment variables, after
// reading a .env file from the working directory when one exists.
//
//	var cfg guard.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	dotenvErr  error
)

func loadDotenv() error {
	dotenvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			dotenvErr = fmt.Errorf("failed to load .env: %w", err)
		}
	})
	return dotenvErr
}

// Load parses environment variables into cfg using `env` and `envDefault`
// struct tags.
func Load[T any](cfg *T) error {
	if err := loadDotenv(); err != nil {
		return err
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// MustLoad is like Load but panics on error. Intended for program startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
