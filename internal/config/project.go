package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is `pocket.yaml`'s shape: search paths, the debug default,
// and a stack size override, parsed with gopkg.in/yaml.v3 the way the
// teacher parses funxy.yaml (funvibe-funxy internal/ext/config.go).
// Unlike funxy.yaml (Go dependency bindings, out of this core's scope),
// pocket.yaml only configures the runtime concerns spec.md §5/§6 expose.
type ProjectConfig struct {
	SearchPaths  []string `yaml:"search_paths,omitempty"`
	Debug        bool     `yaml:"debug,omitempty"`
	MaxStackSize int      `yaml:"max_stack_size,omitempty"`
}

// ProjectConfigFile is the filename LoadProjectConfig looks for in dir.
const ProjectConfigFile = "pocket.yaml"

// LoadProjectConfig reads pocket.yaml from dir, if present, returning
// defaults when the file doesn't exist. A malformed file is an error: the
// CLI should fail fast rather than silently running with wrong settings.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	cfg := &ProjectConfig{MaxStackSize: DefaultMaxStackValues}

	data, err := os.ReadFile(filepath.Join(dir, ProjectConfigFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.MaxStackSize <= 0 {
		cfg.MaxStackSize = DefaultMaxStackValues
	}
	return cfg, nil
}

// ResolvedBaseDir picks the import search root for a script at scriptPath:
// the first configured search path, or the script's own directory when
// none was configured (spec.md §6 "host-configured search paths").
func (c *ProjectConfig) ResolvedBaseDir(scriptPath string) string {
	if len(c.SearchPaths) > 0 {
		return c.SearchPaths[0]
	}
	return filepath.Dir(scriptPath)
}

// StripBOM removes a leading UTF-8 byte-order mark, per spec.md §6 "plain
// UTF-8 text, optionally prefixed with a UTF-8 BOM which is skipped".
func StripBOM(src []byte) []byte {
	const bom = "\xef\xbb\xbf"
	if len(src) >= 3 && string(src[:3]) == bom {
		return src[3:]
	}
	return src
}
