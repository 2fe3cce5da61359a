package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// projectConfigFiles are searched for, in order, in each directory.
var projectConfigFiles = []string{".perlls.yaml", ".perlls.yml"}

// vcsRootMarkers stop the upward search for a project file.
var vcsRootMarkers = []string{".git", ".hg", ".svn"}

type LoadOptions struct {
	// WorkingDir is where the project file search starts. Defaults to the
	// current directory.
	WorkingDir string

	// ExplicitPath is a file given with --config. It is loaded after the
	// project file.
	ExplicitPath string

	IgnoreProjectConfig bool
	IgnoreEnv           bool

	// Getenv looks up environment variables. Defaults to os.Getenv.
	Getenv func(string) string
}

type LoadResult struct {
	Config *Config

	// LoadedFrom lists the files applied, lowest precedence first.
	LoadedFrom []string
}

// Load resolves the configuration. Precedence, highest first:
//  1. Environment variables (PERLLS_*)
//  2. Explicit config file (opts.ExplicitPath)
//  3. Project config (.perlls.yaml upward search)
//  4. Defaults
//
// Command-line flags are applied by the caller on top of the result.
func Load(ctx context.Context, opts LoadOptions) (*LoadResult, error) {
	workDir := opts.WorkingDir
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
	}

	cfg := Default()
	result := &LoadResult{}

	if !opts.IgnoreProjectConfig {
		path, err := FindProjectConfig(ctx, workDir)
		if err != nil {
			return nil, err
		}
		if path != "" {
			if err := loadFile(cfg, path); err != nil {
				return nil, fmt.Errorf("load project config: %w", err)
			}
			result.LoadedFrom = append(result.LoadedFrom, path)
		}
	}

	if opts.ExplicitPath != "" {
		if err := loadFile(cfg, opts.ExplicitPath); err != nil {
			return nil, fmt.Errorf("load explicit config: %w", err)
		}
		result.LoadedFrom = append(result.LoadedFrom, opts.ExplicitPath)
	}

	if !opts.IgnoreEnv {
		getenv := opts.Getenv
		if getenv == nil {
			getenv = os.Getenv
		}
		if err := applyEnv(cfg, getenv); err != nil {
			return nil, fmt.Errorf("load environment: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	result.Config = cfg
	return result, nil
}

// loadFile decodes the YAML file at path over cfg. Keys absent from the
// file keep their current values; unknown keys are an error.
func loadFile(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// FindProjectConfig searches upward from startDir for a project config
// file. It stops at a VCS root, the home directory or the filesystem root
// and returns "" when nothing is found.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	home, _ := os.UserHomeDir()

	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("context cancelled: %w", err)
		}
		for _, name := range projectConfigFiles {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				return path, nil
			}
		}
		if isVCSRoot(dir) || (home != "" && dir == home) {
			return "", nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func isVCSRoot(dir string) bool {
	for _, marker := range vcsRootMarkers {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
