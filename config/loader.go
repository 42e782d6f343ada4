package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/networkable/logger"
)

// FileSystem abstracts the file operations used during resolution.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// OSFileSystem implements FileSystem on the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (OSFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver finds config and env files for an application.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths. Empty
// means not found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths from opts when set, otherwise the
// first existing candidate from the search paths.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(r.configCandidates(name))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first([]string{
			fmt.Sprintf(".env.%s", name),
			".env",
			filepath.Join("config", ".env"),
		})
	}
	return resolved
}

func (r *Resolver) configCandidates(name string) []string {
	candidates := []string{
		name + ".yml",
		name + ".yaml",
		"config.yml",
		filepath.Join("config", name+".yml"),
		filepath.Join("config", "config.yml"),
		filepath.Join("cmd", name, "config.yml"),
	}
	if dir, err := r.FileSystem.UserConfigDir(); err == nil && dir != "" {
		candidates = append(candidates,
			filepath.Join(dir, name, "config.yml"),
			filepath.Join(dir, name, "config.yaml"),
		)
	}
	return candidates
}

func (r *Resolver) first(paths []string) string {
	for _, p := range paths {
		if r.FileSystem.Exists(p) {
			return p
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional overrides for LoadConfig.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file; must exist when set
	EnvFile    string // explicit .env file
	EnvPrefix  string // defaults to the upper-cased application name
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix sets the prefix environment overrides must carry. An empty
// prefix is replaced by the default.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// LoadConfig loads configuration for the named application into cfg.
//
// Order of precedence, lowest first: the config file, the .env file, then
// the process environment. Only variables starting with the env prefix and
// an underscore are considered: with prefix NETWORKABLE,
// NETWORKABLE_SESSION_BASE_URL sets session.base_url.
func LoadConfig(name string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}
	if lc.EnvPrefix == "" {
		lc.EnvPrefix = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	}

	if lc.ConfigFile != "" && !lc.FileSystem.Exists(lc.ConfigFile) {
		return fmt.Errorf("config file %s not found", lc.ConfigFile)
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(name, lc)
	return load(name, cfg, files, lc)
}

func load(name string, cfg any, files ResolvedFiles, lc LoaderConfig) error {
	log := logger.Get("config")
	v := viper.New()

	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", files.ConfigFile, err)
		}
		log.Debug("config file loaded", logger.Fields("path", files.ConfigFile))
	}

	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("failed to load env file", logger.Fields("path", files.EnvFile, "error", err.Error()))
		} else {
			log.Debug("env file loaded", logger.Fields("path", files.EnvFile))
		}
	}

	bindEnv(v, lc.EnvPrefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config for %s: %w", name, err)
	}
	return nil
}

// bindEnv sets every prefixed variable under each nested key it could name.
// Viper ignores keys that do not match a struct field during Unmarshal.
func bindEnv(v *viper.Viper, prefix string, environ []string) {
	p := strings.ToUpper(prefix) + "_"
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, p) || len(key) == len(p) {
			continue
		}
		for _, variant := range envKeyVariants(key[len(p):]) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants returns the candidate config keys for an env key, since an
// underscore may separate either nesting levels or words of one key:
//
//	SESSION_BASE_URL -> session_base_url, session.base.url,
//	                    session.base_url, session_base.url
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := make(map[string]bool)
	var variants []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			variants = append(variants, s)
		}
	}

	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "_"))
	}
	return variants
}
