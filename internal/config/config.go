// Package config loads server settings from defaults, an optional .env file
// and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yourusername/ckengine/pkg/engine"
)

// Environment variable names.
const (
	EnvHost            = "CK_HOST"
	EnvPort            = "CK_PORT"
	EnvDepth           = "CK_DEPTH"
	EnvCacheSize       = "CK_CACHE_SIZE"
	EnvLogLevel        = "CK_LOG_LEVEL"
	EnvLogPretty       = "CK_LOG_PRETTY"
	EnvReadTimeout     = "CK_READ_TIMEOUT"
	EnvWriteTimeout    = "CK_WRITE_TIMEOUT"
	EnvIdleTimeout     = "CK_IDLE_TIMEOUT"
	EnvShutdownTimeout = "CK_SHUTDOWN_TIMEOUT"
	EnvMaxFastWorkers  = "CK_MAX_FAST_WORKERS"
	EnvMaxSlowWorkers  = "CK_MAX_SLOW_WORKERS"
	EnvMaxSessions     = "CK_MAX_SESSIONS"
	EnvCPUSide         = "CK_CPU_SIDE"
	EnvExternalAddr    = "CK_EXTERNAL_ADDR"
)

// Config holds everything needed to run the server.
type Config struct {
	Host            string
	Port            int
	Depth           int // CPU search depth
	CacheSize       int // search cache entries, 0 disables the cache
	LogLevel        string
	LogPretty       bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxFastWorkers  int
	MaxSlowWorkers  int
	MaxSessions     int
	CPUSide         string // side the CPU plays in new games: "B", "R" or "" (env value "none")
	ExternalAddr    string // TCP address of the external player protocol, empty to disable
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Host:            "localhost",
		Port:            8080,
		Depth:           3,
		CacheSize:       1 << 16,
		LogLevel:        "info",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxFastWorkers:  100,
		MaxSlowWorkers:  4,
		MaxSessions:     1000,
		CPUSide:         "B",
	}
}

// Load returns Default overlaid with values from envFile (if it exists) and
// then the process environment, which takes precedence. An empty envFile
// means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	fileEnv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading %s: %w", envFile, err)
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	return FromLookup(lookup)
}

// FromLookup builds a Config from Default and the values returned by lookup.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	p := parser{lookup: lookup}

	p.str(EnvHost, &c.Host)
	p.integer(EnvPort, &c.Port)
	p.integer(EnvDepth, &c.Depth)
	p.integer(EnvCacheSize, &c.CacheSize)
	p.str(EnvLogLevel, &c.LogLevel)
	p.boolean(EnvLogPretty, &c.LogPretty)
	p.duration(EnvReadTimeout, &c.ReadTimeout)
	p.duration(EnvWriteTimeout, &c.WriteTimeout)
	p.duration(EnvIdleTimeout, &c.IdleTimeout)
	p.duration(EnvShutdownTimeout, &c.ShutdownTimeout)
	p.integer(EnvMaxFastWorkers, &c.MaxFastWorkers)
	p.integer(EnvMaxSlowWorkers, &c.MaxSlowWorkers)
	p.integer(EnvMaxSessions, &c.MaxSessions)
	p.str(EnvCPUSide, &c.CPUSide)
	p.str(EnvExternalAddr, &c.ExternalAddr)

	if p.err != nil {
		return Config{}, p.err
	}
	if c.CPUSide == "none" {
		c.CPUSide = ""
	}
	return c, c.Validate()
}

// Validate checks ranges that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Depth < 1 || c.Depth > engine.MaxDepth {
		return fmt.Errorf("depth must be between 1 and %d, got %d", engine.MaxDepth, c.Depth)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	}
	switch c.CPUSide {
	case "", "B", "R":
	default:
		return fmt.Errorf("cpu side must be B, R or empty, got %q", c.CPUSide)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// parser keeps the first conversion error.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(key string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(key)
	return v, ok && v != ""
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.get(key); ok {
		*dst = v
	}
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = n
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	*dst = d
}
