package data

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyServerURL      = "server.url"
	KeyServerTimeout  = "server.timeout"
	KeyHealthInterval = "stream.health_interval"
	KeyBackoffBase    = "stream.backoff_base"
	KeyBackoffFactor  = "stream.backoff_factor"
	KeyBackoffCap     = "stream.backoff_cap"
	KeyAutoStart      = "stream.autostart"
	KeyPollInterval   = "poll.interval"
	KeySnapshotPath   = "feed.snapshot_path"
	KeyLogLevel       = "log.level"
)

const EnvPrefix = "LULU"

type keyKind int

const (
	kindString keyKind = iota
	kindDuration
	kindFloat
	kindBool
)

type keyDef struct {
	kind  keyKind
	value interface{}
	help  string
}

var knownKeys = map[string]keyDef{
	KeyServerURL:      {kindString, "http://127.0.0.1:5001", "backend base URL"},
	KeyServerTimeout:  {kindDuration, 10 * time.Second, "per-request timeout"},
	KeyHealthInterval: {kindDuration, 5 * time.Second, "camera health check interval"},
	KeyBackoffBase:    {kindDuration, 1500 * time.Millisecond, "first reconnect delay"},
	KeyBackoffFactor:  {kindFloat, 1.6, "reconnect delay growth factor"},
	KeyBackoffCap:     {kindDuration, 8 * time.Second, "longest reconnect delay"},
	KeyAutoStart:      {kindBool, true, "start the camera when the dashboard opens"},
	KeyPollInterval:   {kindDuration, time.Second, "status polling interval"},
	KeySnapshotPath:   {kindString, "", "write the latest feed frame here (empty: off)"},
	KeyLogLevel:       {kindString, "info", "debug, info, warn or error"},
}

// StreamConfig is the typed form of the stream.* keys.
type StreamConfig struct {
	HealthInterval time.Duration
	BackoffBase    time.Duration
	BackoffFactor  float64
	BackoffCap     time.Duration
	AutoStart      bool
}

// ConfigStore provides typed access to lulu.yaml configuration.
// It wraps viper internally and exposes only typed interfaces.
type ConfigStore struct {
	v *viper.Viper
}

// NewConfigStore creates a new ConfigStore using the global viper instance.
func NewConfigStore() *ConfigStore {
	return NewConfigStoreWith(viper.GetViper())
}

// NewConfigStoreWith wraps v and registers the defaults on it.
func NewConfigStoreWith(v *viper.Viper) *ConfigStore {
	for key, def := range knownKeys {
		// Durations are kept as strings so saved files read "5s", not nanoseconds.
		if d, ok := def.value.(time.Duration); ok {
			v.SetDefault(key, d.String())
			continue
		}
		v.SetDefault(key, def.value)
	}
	return &ConfigStore{v: v}
}

// SetConfigFile sets the configuration file path and reads it when it exists.
// Environment variables LULU_SERVER_URL, LULU_LOG_LEVEL, ... override the file.
func (c *ConfigStore) SetConfigFile(path string) error {
	c.v.SetConfigFile(path)
	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return c.v.ReadInConfig()
}

// ConfigFileUsed returns the path to the config file being used.
func (c *ConfigStore) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

func (c *ConfigStore) ServerURL() string {
	return strings.TrimSpace(c.v.GetString(KeyServerURL))
}

func (c *ConfigStore) ServerTimeout() time.Duration {
	return c.duration(KeyServerTimeout)
}

func (c *ConfigStore) PollInterval() time.Duration {
	return c.duration(KeyPollInterval)
}

func (c *ConfigStore) SnapshotPath() string {
	path := strings.TrimSpace(c.v.GetString(KeySnapshotPath))
	if path == "" {
		return ""
	}
	return ExpandPath(path)
}

func (c *ConfigStore) LogLevel() string {
	return c.v.GetString(KeyLogLevel)
}

func (c *ConfigStore) Stream() StreamConfig {
	return StreamConfig{
		HealthInterval: c.duration(KeyHealthInterval),
		BackoffBase:    c.duration(KeyBackoffBase),
		BackoffFactor:  c.v.GetFloat64(KeyBackoffFactor),
		BackoffCap:     c.duration(KeyBackoffCap),
		AutoStart:      c.v.GetBool(KeyAutoStart),
	}
}

// duration reads a duration key, falling back to the default when the
// stored value does not parse or is not positive.
func (c *ConfigStore) duration(key string) time.Duration {
	d := c.v.GetDuration(key)
	if d <= 0 {
		return knownKeys[key].value.(time.Duration)
	}
	return d
}

// Keys returns every known key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// KeyHelp returns the one-line description of a key.
func KeyHelp(key string) string {
	return knownKeys[key].help
}

// Get returns the effective value of key rendered as a string.
func (c *ConfigStore) Get(key string) (string, error) {
	key = strings.ToLower(key)
	def, ok := knownKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key '%s'", key)
	}
	switch def.kind {
	case kindDuration:
		return c.duration(key).String(), nil
	case kindFloat:
		return strconv.FormatFloat(c.v.GetFloat64(key), 'g', -1, 64), nil
	case kindBool:
		return strconv.FormatBool(c.v.GetBool(key)), nil
	default:
		return c.v.GetString(key), nil
	}
}

// Set validates value against the key's type, stores it and saves the file.
func (c *ConfigStore) Set(key, value string) error {
	key = strings.ToLower(key)
	def, ok := knownKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key '%s'", key)
	}
	value = strings.TrimSpace(value)

	var typed interface{}
	switch def.kind {
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("'%s' needs a positive duration such as 1500ms or 5s", key)
		}
		typed = d.String()
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 1 {
			return fmt.Errorf("'%s' needs a number of at least 1", key)
		}
		typed = f
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("'%s' needs true or false", key)
		}
		typed = b
	default:
		typed = value
	}

	c.v.Set(key, typed)
	return c.Save()
}

// Export saves the current configuration to the specified path.
func (c *ConfigStore) Export(path string) error {
	exportViper := viper.New()
	for _, k := range Keys() {
		if knownKeys[k].kind == kindDuration {
			exportViper.Set(k, c.duration(k).String())
			continue
		}
		exportViper.Set(k, c.v.Get(k))
	}
	exportViper.SetConfigFile(path)
	return exportViper.WriteConfig()
}

// Import loads configuration from the specified path, merges the known
// keys into the current configuration and saves it.
func (c *ConfigStore) Import(path string) error {
	importViper := viper.New()
	importViper.SetConfigFile(path)
	if err := importViper.ReadInConfig(); err != nil {
		return err
	}
	for _, k := range Keys() {
		if importViper.IsSet(k) {
			c.v.Set(k, importViper.Get(k))
		}
	}
	return c.Save()
}

// Save persists the configuration to disk.
func (c *ConfigStore) Save() error {
	configFile := c.v.ConfigFileUsed()
	if configFile == "" {
		configFile = GetConfigFilePath()
		c.v.SetConfigFile(configFile)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return c.v.WriteConfigAs(configFile)
}
