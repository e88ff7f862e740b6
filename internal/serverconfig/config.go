// Package serverconfig loads the language-server discovery table: which
// command/args/env/init-options to launch for a given language id. This
// is the "external config collaborator" spec.md §4.D refers to — out of
// the core's scope by design, but still real, wired code here, adapted
// from the teacher's internal/cli/config.Load (viper, SetDefault,
// AddConfigPath, tolerate ConfigFileNotFoundError) to this daemon's
// schema instead of a database/server/build config.
package serverconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ServerSpec describes how to launch the LSP server for one language.
type ServerSpec struct {
	Name         string            `mapstructure:"name"`
	Command      string            `mapstructure:"command"`
	Args         []string          `mapstructure:"args"`
	Env          map[string]string `mapstructure:"env"`
	InitOptions  map[string]interface{} `mapstructure:"init_options"`
	Extensions   []string          `mapstructure:"extensions"`
}

// Config is the full language → ServerSpec table.
type Config struct {
	Servers map[string]ServerSpec `mapstructure:"servers"`
}

var defaultServers = map[string]ServerSpec{
	"go": {
		Name:       "gopls",
		Command:    "gopls",
		Args:       []string{},
		Extensions: []string{".go"},
	},
	"python": {
		Name:       "pyright",
		Command:    "pyright-langserver",
		Args:       []string{"--stdio"},
		Extensions: []string{".py"},
	},
	"typescript": {
		Name:       "typescript-language-server",
		Command:    "typescript-language-server",
		Args:       []string{"--stdio"},
		Extensions: []string{".ts", ".tsx", ".js", ".jsx"},
	},
	"rust": {
		Name:       "rust-analyzer",
		Command:    "rust-analyzer",
		Args:       []string{},
		Extensions: []string{".rs"},
	},
}

// Load reads servers.yaml/servers.json from $XDG_CONFIG_HOME/lspmuxd (or
// the current directory as a fallback) and overlays it on the built-in
// defaults above; an absent config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	for lang, spec := range defaultServers {
		v.SetDefault("servers."+lang+".name", spec.Name)
		v.SetDefault("servers."+lang+".command", spec.Command)
		v.SetDefault("servers."+lang+".args", spec.Args)
		v.SetDefault("servers."+lang+".extensions", spec.Extensions)
	}

	v.SetConfigName("servers")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir())
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvPrefix("LSPCMD")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading server config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling server config: %w", err)
	}
	return &cfg, nil
}

// configDir resolves $XDG_CONFIG_HOME/lspmuxd, falling back to
// ~/.config/lspmuxd per the XDG base directory spec spec.md §6.3 names.
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lspmuxd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lspmuxd")
}

// ForLanguage looks up the server spec for a language id.
func (c *Config) ForLanguage(languageID string) (*ServerSpec, error) {
	spec, ok := c.Servers[languageID]
	if !ok {
		return nil, fmt.Errorf("no language server configured for %q", languageID)
	}
	if spec.Command == "" {
		return nil, fmt.Errorf("language server entry for %q has no command", languageID)
	}
	return &spec, nil
}

// LanguageForPath derives a language id from a file's extension by
// scanning the configured servers' Extensions lists.
func (c *Config) LanguageForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	for lang, spec := range c.Servers {
		for _, e := range spec.Extensions {
			if strings.EqualFold(e, ext) {
				return lang, true
			}
		}
	}
	return "", false
}

// EnvOrInherit renders a ServerSpec's Env map as "KEY=VALUE" pairs appended to the
// current process environment, the shape exec.Cmd.Env expects.
func (s *ServerSpec) EnvOrInherit() []string {
	env := os.Environ()
	for k, v := range s.Env {
		env = append(env, k+"="+v)
	}
	return env
}
