package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// CallFile describes one remote call in YAML.
//
//	name: search
//	url: https://api.example.com/search
//	timeout: 10s
//	retry:
//	  max: 2
//	  interval: 1s
//	cache:
//	  minutes: 10
//	auth:
//	  header: Authorization
//	  token_env: SEARCH_TOKEN
//	  scheme: Bearer
//	fields:
//	  - {bind: query, name: q, value: golang}
//	  - {bind: multipart_file, name: doc, file: ./report.pdf}
type CallFile struct {
	Name        string      `yaml:"name"`
	URL         string      `yaml:"url"`
	Method      string      `yaml:"method"`
	ContentType string      `yaml:"content_type"`
	Timeout     Duration    `yaml:"timeout"`
	CustomURL   string      `yaml:"custom_url"`
	Bypass      bool        `yaml:"bypass_auto_generate"`
	Retry       RetryConfig `yaml:"retry"`
	Cache       CacheConfig `yaml:"cache"`
	Auth        *AuthConfig `yaml:"auth"`
	Fields      []FieldSpec `yaml:"fields"`

	// dir is the directory of the call file; relative file paths resolve
	// against it.
	dir string
}

type RetryConfig struct {
	Max      int      `yaml:"max"`
	Interval Duration `yaml:"interval"`
}

type CacheConfig struct {
	Minutes int `yaml:"minutes"`
}

// AuthConfig injects a token read from the environment as a header.
type AuthConfig struct {
	Header   string `yaml:"header"`
	TokenEnv string `yaml:"token_env"`
	Scheme   string `yaml:"scheme"`
}

// FieldSpec is one field binding. File is read for multipart_file and
// raw_bytes fields when Value is empty. Layout formats RFC 3339 values.
type FieldSpec struct {
	Bind        string `yaml:"bind"`
	Name        string `yaml:"name"`
	Value       any    `yaml:"value"`
	File        string `yaml:"file"`
	FileName    string `yaml:"file_name"`
	Layout      string `yaml:"layout"`
	IgnoreEmpty bool   `yaml:"ignore_empty"`
}

// Duration accepts Go duration strings in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

var errNoURL = errors.New("call file: url or custom_url is required")

// LoadCallFile reads and validates a call file.
func LoadCallFile(path string) (*CallFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read call file: %w", err)
	}

	var cf CallFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse call file %s: %w", path, err)
	}
	if cf.URL == "" && cf.CustomURL == "" {
		return nil, errNoURL
	}
	if cf.Name == "" {
		cf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	cf.dir = filepath.Dir(path)

	return &cf, nil
}

// Settings are the process-wide options, read from flags and INVOKE_*
// environment variables.
type Settings struct {
	LogLevel  string
	LogFormat string
	Curl      bool

	CacheType   string
	CacheDir    string
	RedisAddr   string
	RedisPrefix string
	SQLitePath  string
	SQLiteTable string

	ProbeAddr string

	MetricsAddr string
	Interval    time.Duration
}

func settingsFrom(v *viper.Viper) Settings {
	return Settings{
		LogLevel:    v.GetString("log-level"),
		LogFormat:   v.GetString("log-format"),
		Curl:        v.GetBool("curl"),
		CacheType:   v.GetString("cache"),
		CacheDir:    v.GetString("cache-dir"),
		RedisAddr:   v.GetString("redis-addr"),
		RedisPrefix: v.GetString("redis-prefix"),
		SQLitePath:  v.GetString("sqlite-path"),
		SQLiteTable: v.GetString("sqlite-table"),
		ProbeAddr:   v.GetString("probe-addr"),
		MetricsAddr: v.GetString("metrics-addr"),
		Interval:    v.GetDuration("interval"),
	}
}
