package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/satchel/pkg/domain"
)

// Driver names accepted in Config.Driver.
const (
	DriverFile    = "file"
	DriverRedis   = "redis"
	DriverProcess = "process"
)

// Handler names accepted in Process.Handler.
const (
	HandlerMemory = "memory"
	HandlerRedis  = "redis"
)

// Config selects a backend and carries the options of every backend.
type Config struct {
	Driver  string  `mapstructure:"driver" yaml:"driver" json:"driver" env:"DRIVER"`
	File    File    `mapstructure:"file" yaml:"file" json:"file" envPrefix:"FILE_"`
	Redis   Redis   `mapstructure:"redis" yaml:"redis" json:"redis" envPrefix:"REDIS_"`
	Process Process `mapstructure:"process" yaml:"process" json:"process" envPrefix:"PROCESS_"`
}

// File configures the file backend.
type File struct {
	SavePath       string `mapstructure:"savePath" yaml:"savePath" json:"savePath" env:"SAVE_PATH"`
	Expire         int    `mapstructure:"expire" yaml:"expire" json:"expire" env:"EXPIRE"`
	KeyPrefix      string `mapstructure:"keyPrefix" yaml:"keyPrefix" json:"keyPrefix" env:"KEY_PREFIX"`
	FlashKeyPrefix string `mapstructure:"flashKeyPrefix" yaml:"flashKeyPrefix" json:"flashKeyPrefix" env:"FLASH_KEY_PREFIX"`
	SessionName    string `mapstructure:"sessionName" yaml:"sessionName" json:"sessionName" env:"SESSION_NAME"`
	GCProbability  int    `mapstructure:"gcProbability" yaml:"gcProbability" json:"gcProbability" env:"GC_PROBABILITY"`
	GCDivisor      int    `mapstructure:"gcDivisor" yaml:"gcDivisor" json:"gcDivisor" env:"GC_DIVISOR"`
}

// Redis configures the remote backend and the redis save handler.
type Redis struct {
	// Server is "host:port" or a redis:// URL.
	Server         string `mapstructure:"server" yaml:"server" json:"server" env:"SERVER"`
	Expire         int    `mapstructure:"expire" yaml:"expire" json:"expire" env:"EXPIRE"`
	KeyPrefix      string `mapstructure:"keyPrefix" yaml:"keyPrefix" json:"keyPrefix" env:"KEY_PREFIX"`
	FlashKeyPrefix string `mapstructure:"flashKeyPrefix" yaml:"flashKeyPrefix" json:"flashKeyPrefix" env:"FLASH_KEY_PREFIX"`
	// AtomicFlash reads flash entries with GETDEL instead of GET followed by DEL.
	AtomicFlash bool `mapstructure:"atomicFlash" yaml:"atomicFlash" json:"atomicFlash" env:"ATOMIC_FLASH"`
}

// Process configures the process backend and its host session manager.
type Process struct {
	Handler        string `mapstructure:"handler" yaml:"handler" json:"handler" env:"HANDLER"`
	SessionName    string `mapstructure:"sessionName" yaml:"sessionName" json:"sessionName" env:"SESSION_NAME"`
	Expire         int    `mapstructure:"expire" yaml:"expire" json:"expire" env:"EXPIRE"`
	KeyPrefix      string `mapstructure:"keyPrefix" yaml:"keyPrefix" json:"keyPrefix" env:"KEY_PREFIX"`
	FlashKeyPrefix string `mapstructure:"flashKeyPrefix" yaml:"flashKeyPrefix" json:"flashKeyPrefix" env:"FLASH_KEY_PREFIX"`
	GCProbability  int    `mapstructure:"gcProbability" yaml:"gcProbability" json:"gcProbability" env:"GC_PROBABILITY"`
	GCDivisor      int    `mapstructure:"gcDivisor" yaml:"gcDivisor" json:"gcDivisor" env:"GC_DIVISOR"`
}

// Default returns the configuration used when nothing is set: the file driver.
func Default() Config {
	return Config{
		Driver:  DriverFile,
		File:    DefaultFile(),
		Redis:   DefaultRedis(),
		Process: DefaultProcess(),
	}
}

// DefaultFile returns the file backend defaults.
func DefaultFile() File {
	return File{
		Expire:         domain.DefaultExpire,
		KeyPrefix:      "",
		FlashKeyPrefix: domain.DefaultFileFlashKeyPrefix,
		SessionName:    domain.DefaultSessionName,
		GCProbability:  domain.DefaultGCProbability,
		GCDivisor:      domain.DefaultGCDivisor,
	}
}

// DefaultRedis returns the remote backend defaults.
func DefaultRedis() Redis {
	return Redis{
		Server:         domain.DefaultServer,
		Expire:         domain.DefaultExpire,
		KeyPrefix:      domain.DefaultKeyPrefix,
		FlashKeyPrefix: domain.DefaultFlashKeyPrefix,
	}
}

// DefaultProcess returns the process backend defaults.
func DefaultProcess() Process {
	return Process{
		Handler:        HandlerMemory,
		SessionName:    domain.DefaultSessionName,
		Expire:         domain.DefaultExpire,
		KeyPrefix:      domain.DefaultKeyPrefix,
		FlashKeyPrefix: domain.DefaultFlashKeyPrefix,
		GCProbability:  domain.DefaultGCProbability,
		GCDivisor:      domain.DefaultGCDivisor,
	}
}

// Dir returns the storage directory, defaulting to <tmp>/<SessionName>_DATA.
func (c File) Dir() string {
	if c.SavePath != "" {
		return c.SavePath
	}
	name := c.SessionName
	if name == "" {
		name = domain.DefaultSessionName
	}
	return filepath.Join(os.TempDir(), name+domain.SavePathSuffix)
}

// TTL returns Expire as a duration.
func (c File) TTL() time.Duration { return time.Duration(c.Expire) * time.Second }

// Namespace returns the key namespace of the file backend.
func (c File) Namespace() domain.Namespace {
	return domain.Namespace{KeyPrefix: c.KeyPrefix, FlashKeyPrefix: c.FlashKeyPrefix}
}

// Validate checks value ranges.
func (c File) Validate() error {
	if c.Expire <= 0 {
		return fmt.Errorf("%w: file.expire must be positive", domain.ErrInvalidConfig)
	}
	return validateGC("file", c.GCProbability, c.GCDivisor)
}

// TTL returns Expire as a duration.
func (c Redis) TTL() time.Duration { return time.Duration(c.Expire) * time.Second }

// Namespace returns the key namespace of the remote backend.
func (c Redis) Namespace() domain.Namespace {
	return domain.Namespace{KeyPrefix: c.KeyPrefix, FlashKeyPrefix: c.FlashKeyPrefix}
}

// Validate checks value ranges.
func (c Redis) Validate() error {
	if c.Expire <= 0 {
		return fmt.Errorf("%w: redis.expire must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// TTL returns Expire as a duration.
func (c Process) TTL() time.Duration { return time.Duration(c.Expire) * time.Second }

// Namespace returns the key namespace of the process backend.
func (c Process) Namespace() domain.Namespace {
	return domain.Namespace{KeyPrefix: c.KeyPrefix, FlashKeyPrefix: c.FlashKeyPrefix}
}

// Validate checks value ranges.
func (c Process) Validate() error {
	switch c.Handler {
	case HandlerMemory, HandlerRedis:
	default:
		return fmt.Errorf("%w: unknown process.handler %q", domain.ErrInvalidConfig, c.Handler)
	}
	if c.Expire <= 0 {
		return fmt.Errorf("%w: process.expire must be positive", domain.ErrInvalidConfig)
	}
	return validateGC("process", c.GCProbability, c.GCDivisor)
}

// Validate checks the driver name and the options of the selected backend.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverFile:
		return c.File.Validate()
	case DriverRedis:
		return c.Redis.Validate()
	case DriverProcess:
		if err := c.Process.Validate(); err != nil {
			return err
		}
		if c.Process.Handler == HandlerRedis {
			return c.Redis.Validate()
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown driver %q", domain.ErrInvalidConfig, c.Driver)
	}
}

// SessionName returns the cookie name of the selected backend.
func (c Config) SessionName() string {
	name := ""
	switch c.Driver {
	case DriverFile:
		name = c.File.SessionName
	case DriverProcess:
		name = c.Process.SessionName
	}
	if name == "" {
		return domain.DefaultSessionName
	}
	return name
}

func validateGC(section string, probability, divisor int) error {
	if divisor <= 0 {
		return fmt.Errorf("%w: %s.gcDivisor must be positive", domain.ErrInvalidConfig, section)
	}
	if probability < 0 {
		return fmt.Errorf("%w: %s.gcProbability must not be negative", domain.ErrInvalidConfig, section)
	}
	return nil
}
