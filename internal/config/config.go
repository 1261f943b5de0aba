package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const DefaultPath = "configs/clubconnect.toml"

// Environment overrides.
const (
	EnvTokenSecret = "CLUBCONNECT_TOKEN_SECRET"
	EnvSQLiteFile  = "CLUBCONNECT_SQLITE_FILE"
	EnvRedisAddr   = "CLUBCONNECT_REDIS_ADDR"
)

type Storage struct {
	// SQLiteFile selects the sqlite document store. Empty keeps everything
	// in memory.
	SQLiteFile     string `toml:"sqlite_file"`
	RequestTimeout string `toml:"request_timeout"`
}

// Redis holds the optional redis local key-value store. An empty Addr
// keeps local data next to the documents.
type Redis struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	DB          int    `toml:"db"`
	Prefix      string `toml:"prefix"`
	DialTimeout string `toml:"dial_timeout"`
	Timeout     string `toml:"timeout"`
}

type Identity struct {
	TokenSecret     string `toml:"token_secret"`
	TokenExpiration string `toml:"token_expiration"`
	PasswordPepper  string `toml:"password_pepper"`
	SignInInterval  string `toml:"sign_in_interval"`
	SignInBurst     int    `toml:"sign_in_burst"`
	ActionCodeTTL   string `toml:"action_code_ttl"`
}

type Client struct {
	Debug         bool   `toml:"debug_mode"`
	ErrorTTL      string `toml:"error_ttl"`
	RequireSignIn bool   `toml:"require_sign_in"`
	// AdminPassword lets a signed-in user take the admin role. Empty
	// disables it.
	AdminPassword string `toml:"admin_password"`
}

type Config struct {
	Storage  Storage
	Redis    Redis
	Identity Identity
	Client   Client
}

// New reads .env if present, then the toml file at path, then applies
// environment overrides.
func New(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(EnvTokenSecret); v != "" {
		cfg.Identity.TokenSecret = v
	}
	if v := os.Getenv(EnvSQLiteFile); v != "" {
		cfg.Storage.SQLiteFile = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Redis.Addr = v
	}
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) check() error {
	if c.Identity.TokenSecret == "" {
		return fmt.Errorf("identity.token_secret is empty, set it or %s", EnvTokenSecret)
	}
	for name, v := range map[string]string{
		"storage.request_timeout":   c.Storage.RequestTimeout,
		"redis.dial_timeout":        c.Redis.DialTimeout,
		"redis.timeout":             c.Redis.Timeout,
		"identity.token_expiration": c.Identity.TokenExpiration,
		"identity.sign_in_interval": c.Identity.SignInInterval,
		"identity.action_code_ttl":  c.Identity.ActionCodeTTL,
		"client.error_ttl":          c.Client.ErrorTTL,
	} {
		if _, err := Duration(v, 0); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Duration parses s, returning def for an empty string.
func Duration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// MustDuration is Duration for values New has already checked.
func MustDuration(s string, def time.Duration) time.Duration {
	d, err := Duration(s, def)
	if err != nil {
		panic(err)
	}
	return d
}
