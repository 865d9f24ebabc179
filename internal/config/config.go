package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appscans "github.com/bryanwahyu/automaton-query/internal/application/scans"
	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "config.yaml"

const (
	DriverFile     = "file"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"readTimeout"`
		WriteTimeout    time.Duration `yaml:"writeTimeout"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
		AllowedOrigins  []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	Scanner struct {
		Wordlist    string            `yaml:"wordlist"`
		Timeout     time.Duration     `yaml:"timeout"`
		MaxAttempts int               `yaml:"maxAttempts"`
		Backoff     time.Duration     `yaml:"backoff"`
		OutputLimit int               `yaml:"outputLimit"`
		Binaries    map[string]string `yaml:"binaries"`
	} `yaml:"scanner"`

	Storage struct {
		Driver      string `yaml:"driver"`
		ResultsPath string `yaml:"resultsPath"`
		LogPath     string `yaml:"logPath"`
	} `yaml:"storage"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		Prefix     string `yaml:"prefix"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey  string `yaml:"apiKey"`
		Model   string `yaml:"model"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"openai"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requestsPerSecond"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rateLimit"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 0 // lihat HTTPWriteTimeout
	c.Server.ShutdownTimeout = 5 * time.Second
	c.Server.AllowedOrigins = []string{"*"}

	p := appscans.DefaultRetryPolicy()
	c.Scanner.Wordlist = "common.txt"
	c.Scanner.Timeout = p.Timeout
	c.Scanner.MaxAttempts = p.MaxAttempts
	c.Scanner.Backoff = p.Backoff
	c.Scanner.OutputLimit = p.OutputLimit

	c.Storage.Driver = DriverFile
	c.Storage.ResultsPath = "security_scan_results.json"
	c.Storage.LogPath = "security_scan_results.log"

	c.Database.SSLMode = "disable"
	c.Minio.Prefix = "scans"
	c.OpenAI.Model = "gpt-4o-mini"
	c.Log.Level = "info"
	c.RateLimit.RequestsPerSecond = 5
	c.RateLimit.Burst = 10
	return &c
}

// Load baca file YAML di atas nilai default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve picks the config file: explicit flag, then CONFIG_PATH, then
// config.yaml. Only the implicit default may be missing.
func Resolve(flagPath string) (*Config, error) {
	path, explicit := flagPath, flagPath != ""
	if !explicit {
		if v := os.Getenv("CONFIG_PATH"); v != "" {
			path, explicit = v, true
		} else {
			path = DefaultPath
		}
	}
	cfg, err := Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

// secret dari env menang atas file
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Scanner.MaxAttempts < 1 {
		errs = append(errs, errors.New("scanner.maxAttempts must be at least 1"))
	}
	if c.Scanner.Timeout <= 0 {
		errs = append(errs, errors.New("scanner.timeout must be positive"))
	}
	if c.Scanner.Backoff < 0 {
		errs = append(errs, errors.New("scanner.backoff must not be negative"))
	}
	if c.Scanner.OutputLimit < 1 || c.Scanner.OutputLimit > appscans.MaxOutputLimit {
		errs = append(errs, fmt.Errorf("scanner.outputLimit must be between 1 and %d", appscans.MaxOutputLimit))
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("server.writeTimeout must not be negative"))
	}
	for name := range c.Scanner.Binaries {
		if !domain.Tool(name).Known() {
			errs = append(errs, fmt.Errorf("scanner.binaries: %w: %s", domain.ErrUnknownTool, name))
		}
	}
	switch c.Storage.Driver {
	case DriverFile:
		if c.Storage.ResultsPath == "" {
			errs = append(errs, errors.New("storage.resultsPath is required for the file driver"))
		}
	case DriverMySQL, DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.host and database.name are required for the %s driver", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q not supported", c.Storage.Driver))
	}
	if c.Storage.LogPath == "" {
		errs = append(errs, errors.New("storage.logPath is required"))
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		errs = append(errs, errors.New("minio.endpoint and minio.bucketName are required when minio is enabled"))
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rateLimit values must not be negative"))
	}
	return errors.Join(errs...)
}

// HTTPWriteTimeout is server.writeTimeout, or when unset, enough for a
// dashboard run of every tool at its worst case plus a minute of slack.
func (c *Config) HTTPWriteTimeout() time.Duration {
	if c.Server.WriteTimeout > 0 {
		return c.Server.WriteTimeout
	}
	return time.Duration(len(domain.Tools))*c.RetryPolicy().TaskBudget() + time.Minute
}

// RetryPolicy maps the scanner section onto the invoker policy.
func (c *Config) RetryPolicy() appscans.RetryPolicy {
	return appscans.RetryPolicy{
		Timeout:     c.Scanner.Timeout,
		MaxAttempts: c.Scanner.MaxAttempts,
		Backoff:     c.Scanner.Backoff,
		OutputLimit: c.Scanner.OutputLimit,
	}
}

func (c *Config) CommandOptions() domain.CommandOptions {
	opts := domain.CommandOptions{Wordlist: c.Scanner.Wordlist}
	if len(c.Scanner.Binaries) > 0 {
		opts.Binaries = make(map[domain.Tool]string, len(c.Scanner.Binaries))
		for name, bin := range c.Scanner.Binaries {
			opts.Binaries[domain.Tool(name)] = bin
		}
	}
	return opts
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.dbPort(3306),
		c.Database.Name,
	)
}

// Helper untuk build DSN PostgreSQL (format URL lib/pq)
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.dbPort(5432)),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(strings.TrimSpace(c.Database.SSLMode)),
	}
	return u.String()
}

func (c *Config) dbPort(def int) int {
	if c.Database.Port > 0 {
		return c.Database.Port
	}
	return def
}
