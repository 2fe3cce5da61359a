// Package config resolves perlls settings from defaults, YAML files and
// PERLLS_* environment variables.
package config

// Config is the resolved configuration.
type Config struct {
	// Incremental enables subtree reuse. When false every change is
	// followed by a full parse.
	Incremental bool              `yaml:"incremental"`
	Cache       CacheConfig       `yaml:"cache"`
	Performance PerformanceConfig `yaml:"performance"`
	Log         LogConfig         `yaml:"log"`
	Workspace   WorkspaceConfig   `yaml:"workspace"`
}

type CacheConfig struct {
	// MaxSize bounds the content index of each document's subtree cache.
	MaxSize int `yaml:"max_size"`
}

type PerformanceConfig struct {
	// Log enables per-parse timing lines and periodic summaries.
	Log bool `yaml:"log"`
	// TargetParseTimeMs is the parse time above which a warning is logged.
	TargetParseTimeMs float64 `yaml:"target_parse_time_ms"`
}

type LogConfig struct {
	Verbosity int    `yaml:"verbosity"`
	File      string `yaml:"file"`
}

type WorkspaceConfig struct {
	// Include and Exclude are doublestar patterns relative to the
	// workspace root.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Jobs bounds the number of files parsed in parallel during a scan.
	// Zero means one per CPU.
	Jobs int `yaml:"jobs"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Incremental: true,
		Cache: CacheConfig{
			MaxSize: 1000,
		},
		Performance: PerformanceConfig{
			TargetParseTimeMs: 1.0,
		},
		Log: LogConfig{
			Verbosity: 0,
		},
		Workspace: WorkspaceConfig{
			Include: []string{"**/*.pl", "**/*.pm", "**/*.t"},
			Exclude: []string{".git/**", "blib/**", "local/**"},
		},
	}
}
