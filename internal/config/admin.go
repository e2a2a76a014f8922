package config

import (
	"errors"
	"flag"
	"strings"
	"time"
)

// AdminConfig конфигурация административного CLI.
type AdminConfig struct {
	BaseURL        string
	Username       string
	Password       string
	CAFile         string
	RequestTimeout time.Duration
	LogLevel       string
}

// LoadAdminConfig разбирает глобальные флаги CLI и возвращает конфигурацию
// вместе с оставшимися аргументами (подкоманда и её параметры).
func LoadAdminConfig(args []string) (*AdminConfig, []string, error) {
	cfg := &AdminConfig{
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       "warn",
	}

	var (
		address, username, password, caFile, logLevel, configPath string
		requestTimeout                                            int
	)
	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.StringVar(&address, FlagAddress, "", "Backend base URL, e.g. https://host:port/api")
	fs.StringVar(&username, FlagUsername, "", "API username")
	fs.StringVar(&password, FlagPassword, "", "API password")
	fs.StringVar(&caFile, FlagCAFile, "", "PEM bundle with extra trusted CAs")
	fs.IntVar(&requestTimeout, FlagRequestTimeout, int(DefaultRequestTimeout.Seconds()), "HTTP request timeout in seconds")
	fs.StringVar(&logLevel, FlagLogLevel, "warn", "Log level")
	fs.StringVar(&configPath, FlagConfig, "", "Path to JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	js, err := LoadAdminJSONConfig(GetConfigFilePathWithFlag(configPath))
	if err != nil {
		return nil, nil, err
	}
	setString(&cfg.BaseURL, js.Address)
	setString(&cfg.Username, js.Username)
	setString(&cfg.Password, js.Password)
	setString(&cfg.CAFile, js.CAFile)
	setString(&cfg.LogLevel, js.LogLevel)
	if err := setDuration(&cfg.RequestTimeout, js.RequestTimeout); err != nil {
		return nil, nil, err
	}

	envStringInto(&cfg.BaseURL, EnvAddress)
	envStringInto(&cfg.Username, EnvUsername)
	envStringInto(&cfg.Password, EnvPassword)
	envStringInto(&cfg.CAFile, EnvCAFile)
	envStringInto(&cfg.LogLevel, EnvLogLevel)
	if err := envSecondsInto(&cfg.RequestTimeout, EnvRequestTimeout); err != nil {
		return nil, nil, err
	}

	set := visited(fs)
	if set[FlagAddress] {
		cfg.BaseURL = address
	}
	if set[FlagUsername] {
		cfg.Username = username
	}
	if set[FlagPassword] {
		cfg.Password = password
	}
	if set[FlagCAFile] {
		cfg.CAFile = caFile
	}
	if set[FlagRequestTimeout] {
		cfg.RequestTimeout = time.Duration(requestTimeout) * time.Second
	}
	if set[FlagLogLevel] {
		cfg.LogLevel = logLevel
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, fs.Args(), nil
}

// Validate проверяет, что заданы адрес и учётные данные.
func (c *AdminConfig) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, ErrMissingAddress)
	} else if err := validateBaseURL(c.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Username == "" {
		errs = append(errs, ErrMissingUsername)
	}
	if c.Password == "" {
		errs = append(errs, ErrMissingPassword)
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	return errors.Join(errs...)
}
