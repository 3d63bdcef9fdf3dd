// Package config holds the settings shared by the fystack binaries and
// loads them from flags, environment and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is reported by the About dialog and both binaries.
const Version = "0.3.0"

// Configuration keys.
const (
	KeyLogLevel     = "log_level"
	KeyDBPath       = "db_path"
	KeyIndexCache   = "index_cache"
	KeyRecentSize   = "recent_size"
	KeyPlayInterval = "play_interval"
	KeyLoop         = "loop"
	KeyLoadAll      = "load_all"

	envPrefix  = "FYSTACK"
	configName = "fystack"
)

// Flags holds all settings
type Flags struct {
	CfgFile      string
	LogLevel     string
	DBPath       string
	IndexCache   bool
	RecentSize   int
	PlayInterval time.Duration
	Loop         bool
	LoadAll      bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:     "info",
		IndexCache:   true,
		RecentSize:   10,
		PlayInterval: 100 * time.Millisecond,
		Loop:         true,
		LoadAll:      true,
	}
}

// Register adds all settings as flags on fs, using the current values as defaults.
func (f *Flags) Register(fs *pflag.FlagSet) {
	f.RegisterCommon(fs)
	fs.DurationVar(&f.PlayInterval, "play-interval", f.PlayInterval, "Time between frames during playback")
	fs.BoolVar(&f.Loop, "loop", f.Loop, "Wrap playback from the last frame to the first")
	fs.BoolVar(&f.LoadAll, "load-all", f.LoadAll, "Load every frame into memory after opening and print the stack shape")
}

// RegisterCommon adds the settings shared with the CLI: config file,
// logging and the database.
func (f *Flags) RegisterCommon(fs *pflag.FlagSet) {
	fs.StringVar(&f.CfgFile, "config", f.CfgFile, "config file (default is $XDG_CONFIG_HOME/fystack/fystack.yaml)")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&f.DBPath, "db-path", f.DBPath, "Database file or directory (default is the user config directory)")
	fs.BoolVar(&f.IndexCache, "index-cache", f.IndexCache, "Cache page tables of opened stacks")
	fs.IntVar(&f.RecentSize, "recent-size", f.RecentSize, "Number of recently opened stacks to remember (0 to disable)")
}

// Bind connects the flags registered on fs to their keys in v.
func Bind(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		KeyLogLevel:     "log-level",
		KeyDBPath:       "db-path",
		KeyIndexCache:   "index-cache",
		KeyRecentSize:   "recent-size",
		KeyPlayInterval: "play-interval",
		KeyLoop:         "loop",
		KeyLoadAll:      "load-all",
	}
	for key, name := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// InitConfig points v at the config file and the FYSTACK_ environment.
// A missing default config file is not an error; a missing explicit one is.
// It returns the config file used, if any.
func InitConfig(v *viper.Viper, cfgFile string) (string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load reads the resolved settings out of v and validates them.
func Load(v *viper.Viper) (*Flags, error) {
	f := NewFlags()
	if v.IsSet(KeyLogLevel) {
		f.LogLevel = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyDBPath) {
		f.DBPath = v.GetString(KeyDBPath)
	}
	if v.IsSet(KeyIndexCache) {
		f.IndexCache = v.GetBool(KeyIndexCache)
	}
	if v.IsSet(KeyRecentSize) {
		f.RecentSize = v.GetInt(KeyRecentSize)
	}
	if v.IsSet(KeyPlayInterval) {
		f.PlayInterval = v.GetDuration(KeyPlayInterval)
	}
	if v.IsSet(KeyLoop) {
		f.Loop = v.GetBool(KeyLoop)
	}
	if v.IsSet(KeyLoadAll) {
		f.LoadAll = v.GetBool(KeyLoadAll)
	}
	f.CfgFile = v.ConfigFileUsed()

	if f.RecentSize < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", KeyRecentSize, f.RecentSize)
	}
	if f.PlayInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyPlayInterval, f.PlayInterval)
	}
	return f, nil
}
