package config

import (
	"fmt"
	"strconv"
	"strings"
)

const envVarPrefix = "PERLLS_"

type envFieldType int

const (
	envTypeString envFieldType = iota
	envTypeBool
	envTypeInt
	envTypeFloat
	envTypeSlice
)

type envMapping struct {
	field string
	typ   envFieldType
}

// envMappings maps variable names without the prefix to config fields.
var envMappings = map[string]envMapping{
	"INCREMENTAL":                      {field: "incremental", typ: envTypeBool},
	"CACHE_MAX_SIZE":                   {field: "cache.max_size", typ: envTypeInt},
	"PERFORMANCE_LOG":                  {field: "performance.log", typ: envTypeBool},
	"PERFORMANCE_TARGET_PARSE_TIME_MS": {field: "performance.target_parse_time_ms", typ: envTypeFloat},
	"LOG_VERBOSITY":                    {field: "log.verbosity", typ: envTypeInt},
	"LOG_FILE":                         {field: "log.file", typ: envTypeString},
	"WORKSPACE_INCLUDE":                {field: "workspace.include", typ: envTypeSlice},
	"WORKSPACE_EXCLUDE":                {field: "workspace.exclude", typ: envTypeSlice},
	"WORKSPACE_JOBS":                   {field: "workspace.jobs", typ: envTypeInt},
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	for suffix, mapping := range envMappings {
		name := envVarPrefix + suffix
		value := getenv(name)
		if value == "" {
			continue
		}
		if err := applyEnvValue(cfg, mapping, value, name); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvValue(cfg *Config, mapping envMapping, value, name string) error {
	switch mapping.typ {
	case envTypeString:
		return cfg.setString(mapping.field, value)
	case envTypeBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %q", name, value)
		}
		return cfg.setBool(mapping.field, b)
	case envTypeInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer for %s: %q", name, value)
		}
		return cfg.setInt(mapping.field, i)
	case envTypeFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for %s: %q", name, value)
		}
		return cfg.setFloat(mapping.field, f)
	case envTypeSlice:
		return cfg.setSlice(mapping.field, parseSliceValue(value))
	default:
		return fmt.Errorf("unknown field type for %s", name)
	}
}

// parseSliceValue splits a comma-separated list, dropping empty items.
func parseSliceValue(value string) []string {
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func (c *Config) setString(field, value string) error {
	switch field {
	case "log.file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown string field: %s", field)
	}
	return nil
}

func (c *Config) setBool(field string, value bool) error {
	switch field {
	case "incremental":
		c.Incremental = value
	case "performance.log":
		c.Performance.Log = value
	default:
		return fmt.Errorf("unknown boolean field: %s", field)
	}
	return nil
}

func (c *Config) setInt(field string, value int) error {
	switch field {
	case "cache.max_size":
		c.Cache.MaxSize = value
	case "log.verbosity":
		c.Log.Verbosity = value
	case "workspace.jobs":
		c.Workspace.Jobs = value
	default:
		return fmt.Errorf("unknown integer field: %s", field)
	}
	return nil
}

func (c *Config) setFloat(field string, value float64) error {
	switch field {
	case "performance.target_parse_time_ms":
		c.Performance.TargetParseTimeMs = value
	default:
		return fmt.Errorf("unknown number field: %s", field)
	}
	return nil
}

func (c *Config) setSlice(field string, value []string) error {
	switch field {
	case "workspace.include":
		c.Workspace.Include = value
	case "workspace.exclude":
		c.Workspace.Exclude = value
	default:
		return fmt.Errorf("unknown list field: %s", field)
	}
	return nil
}

// EnvVars describes every supported environment variable.
func EnvVars() map[string]string {
	return map[string]string{
		"PERLLS_INCREMENTAL":                      "Reuse subtrees across edits: true or false",
		"PERLLS_CACHE_MAX_SIZE":                   "Bound of each document's content cache",
		"PERLLS_PERFORMANCE_LOG":                  "Log parse timings: true or false",
		"PERLLS_PERFORMANCE_TARGET_PARSE_TIME_MS": "Parse time in ms above which a warning is logged",
		"PERLLS_LOG_VERBOSITY":                    "Log verbosity (0 errors only, higher is chattier)",
		"PERLLS_LOG_FILE":                         "Log file path instead of stderr",
		"PERLLS_WORKSPACE_INCLUDE":                "Comma-separated globs of files to scan",
		"PERLLS_WORKSPACE_EXCLUDE":                "Comma-separated globs of files to skip",
		"PERLLS_WORKSPACE_JOBS":                   "Files parsed in parallel during a scan (0 = one per CPU)",
	}
}
