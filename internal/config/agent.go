package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Значения конфигурации агента по умолчанию.
const (
	DefaultInterval       = 5 * time.Second
	DefaultFailureBudget  = 5
	DefaultInterface      = "eth0"
	DefaultCPUTempPath    = "/sys/class/hwmon/hwmon0/temp1_input"
	DefaultGPUTool        = "nvidia-smi"
	DefaultCommandTimeout = 5 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// Источники данных об использовании памяти.
const (
	MemSourceFree     = "free"
	MemSourceGopsutil = "gopsutil"
)

// Политики планирования тиков.
const (
	ScheduleDelay = "delay"
	ScheduleRate  = "rate"
)

// Ошибки валидации конфигурации.
var (
	ErrMissingAddress  = errors.New("backend address is required")
	ErrMissingUsername = errors.New("username is required")
	ErrMissingPassword = errors.New("password is required")
	ErrMissingDeviceID = errors.New("device id is required")
)

// AgentConfig конфигурация агента сбора и отправки метрик.
type AgentConfig struct {
	BaseURL        string
	Username       string
	Password       string
	DeviceID       string
	Interval       time.Duration
	Interface      string
	FailureBudget  int
	CPUTempPath    string
	GPUTool        string
	MemSource      string
	HostMetrics    bool
	CommandTimeout time.Duration
	RequestTimeout time.Duration
	Schedule       string
	StartDelay     time.Duration
	CAFile         string
	Key            string
	Gzip           bool
	LogLevel       string
}

// DefaultAgentConfig возвращает конфигурацию агента со значениями по умолчанию.
func DefaultAgentConfig() *AgentConfig {
	return &AgentConfig{
		Interval:       DefaultInterval,
		Interface:      DefaultInterface,
		FailureBudget:  DefaultFailureBudget,
		CPUTempPath:    DefaultCPUTempPath,
		GPUTool:        DefaultGPUTool,
		MemSource:      MemSourceFree,
		CommandTimeout: DefaultCommandTimeout,
		RequestTimeout: DefaultRequestTimeout,
		Schedule:       ScheduleDelay,
		LogLevel:       "info",
	}
}

type agentFlags struct {
	address, username, password, deviceID string
	interval, budget                      int
	iface, cpuTempPath, gpuTool, memSrc   string
	hostMetrics, gzip                     bool
	commandTimeout, requestTimeout        int
	schedule                              string
	startDelay                            int
	caFile, key, logLevel, config         string
}

// LoadAgentConfig собирает конфигурацию агента из аргументов командной строки,
// переменных окружения и JSON файла.
//
// Приоритет: флаги, затем окружение, затем JSON файл, затем значения по умолчанию.
// Интервалы во флагах и окружении задаются в секундах.
func LoadAgentConfig(args []string) (*AgentConfig, error) {
	cfg := DefaultAgentConfig()

	var f agentFlags
	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.StringVar(&f.address, FlagAddress, "", "Backend base URL, e.g. https://host:port/api")
	fs.StringVar(&f.username, FlagUsername, "", "API username")
	fs.StringVar(&f.password, FlagPassword, "", "API password")
	fs.StringVar(&f.deviceID, FlagDeviceID, "", "Device identifier sent as machine")
	fs.IntVar(&f.interval, FlagInterval, int(DefaultInterval.Seconds()), "Sampling interval in seconds")
	fs.StringVar(&f.iface, FlagInterface, DefaultInterface, "Network interface name")
	fs.IntVar(&f.budget, FlagFailureBudget, DefaultFailureBudget, "Submission failures tolerated before exit")
	fs.StringVar(&f.cpuTempPath, FlagCPUTempPath, DefaultCPUTempPath, "Sysfs CPU temperature file")
	fs.StringVar(&f.gpuTool, FlagGPUTool, DefaultGPUTool, "GPU vendor query tool")
	fs.StringVar(&f.memSrc, FlagMemSource, MemSourceFree, "Memory source: free or gopsutil")
	fs.BoolVar(&f.hostMetrics, FlagHostMetrics, false, "Also send CPU utilization and disk usage")
	fs.IntVar(&f.commandTimeout, FlagCommandTimeout, int(DefaultCommandTimeout.Seconds()), "External command timeout in seconds")
	fs.IntVar(&f.requestTimeout, FlagRequestTimeout, int(DefaultRequestTimeout.Seconds()), "HTTP request timeout in seconds")
	fs.StringVar(&f.schedule, FlagSchedule, ScheduleDelay, "Tick schedule: delay (sleep after work) or rate (fixed period)")
	fs.IntVar(&f.startDelay, FlagStartDelay, 0, "Delay before login in seconds")
	fs.StringVar(&f.caFile, FlagCAFile, "", "PEM bundle with extra trusted CAs")
	fs.StringVar(&f.key, FlagKey, "", "Key for signing requests")
	fs.BoolVar(&f.gzip, FlagGzip, false, "Gzip request bodies")
	fs.StringVar(&f.logLevel, FlagLogLevel, "info", "Log level")
	fs.StringVar(&f.config, FlagConfig, "", "Path to JSON config file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	js, err := LoadAgentJSONConfig(GetConfigFilePathWithFlag(f.config))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyJSON(js); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyFlags(&f, visited(fs))

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

func (c *AgentConfig) applyJSON(js *AgentJSONConfig) error {
	setString(&c.BaseURL, js.Address)
	setString(&c.Username, js.Username)
	setString(&c.Password, js.Password)
	setString(&c.DeviceID, js.DeviceID)
	setString(&c.Interface, js.Interface)
	setString(&c.CPUTempPath, js.CPUTempPath)
	setString(&c.GPUTool, js.GPUTool)
	setString(&c.MemSource, js.MemSource)
	setString(&c.Schedule, js.Schedule)
	setString(&c.CAFile, js.CAFile)
	setString(&c.Key, js.Key)
	setString(&c.LogLevel, js.LogLevel)
	if js.FailureBudget != nil {
		c.FailureBudget = *js.FailureBudget
	}
	if js.HostMetrics != nil {
		c.HostMetrics = *js.HostMetrics
	}
	if js.Gzip != nil {
		c.Gzip = *js.Gzip
	}
	for _, d := range []struct {
		dst *time.Duration
		val string
	}{
		{&c.Interval, js.Interval},
		{&c.CommandTimeout, js.CommandTimeout},
		{&c.RequestTimeout, js.RequestTimeout},
		{&c.StartDelay, js.StartDelay},
	} {
		if err := setDuration(d.dst, d.val); err != nil {
			return err
		}
	}
	return nil
}

func (c *AgentConfig) applyEnv() error {
	envStringInto(&c.BaseURL, EnvAddress)
	envStringInto(&c.Username, EnvUsername)
	envStringInto(&c.Password, EnvPassword)
	envStringInto(&c.DeviceID, EnvDeviceID)
	envStringInto(&c.Interface, EnvInterface)
	envStringInto(&c.CPUTempPath, EnvCPUTempPath)
	envStringInto(&c.GPUTool, EnvGPUTool)
	envStringInto(&c.MemSource, EnvMemSource)
	envStringInto(&c.Schedule, EnvSchedule)
	envStringInto(&c.CAFile, EnvCAFile)
	envStringInto(&c.Key, EnvKey)
	envStringInto(&c.LogLevel, EnvLogLevel)

	return errors.Join(
		envIntInto(&c.FailureBudget, EnvFailureBudget),
		envBoolInto(&c.HostMetrics, EnvHostMetrics),
		envBoolInto(&c.Gzip, EnvGzip),
		envSecondsInto(&c.Interval, EnvInterval),
		envSecondsInto(&c.CommandTimeout, EnvCommandTimeout),
		envSecondsInto(&c.RequestTimeout, EnvRequestTimeout),
		envSecondsInto(&c.StartDelay, EnvStartDelay),
	)
}

func (c *AgentConfig) applyFlags(f *agentFlags, set map[string]bool) {
	seconds := func(v int) time.Duration { return time.Duration(v) * time.Second }

	if set[FlagAddress] {
		c.BaseURL = f.address
	}
	if set[FlagUsername] {
		c.Username = f.username
	}
	if set[FlagPassword] {
		c.Password = f.password
	}
	if set[FlagDeviceID] {
		c.DeviceID = f.deviceID
	}
	if set[FlagInterval] {
		c.Interval = seconds(f.interval)
	}
	if set[FlagInterface] {
		c.Interface = f.iface
	}
	if set[FlagFailureBudget] {
		c.FailureBudget = f.budget
	}
	if set[FlagCPUTempPath] {
		c.CPUTempPath = f.cpuTempPath
	}
	if set[FlagGPUTool] {
		c.GPUTool = f.gpuTool
	}
	if set[FlagMemSource] {
		c.MemSource = f.memSrc
	}
	if set[FlagHostMetrics] {
		c.HostMetrics = f.hostMetrics
	}
	if set[FlagCommandTimeout] {
		c.CommandTimeout = seconds(f.commandTimeout)
	}
	if set[FlagRequestTimeout] {
		c.RequestTimeout = seconds(f.requestTimeout)
	}
	if set[FlagSchedule] {
		c.Schedule = f.schedule
	}
	if set[FlagStartDelay] {
		c.StartDelay = seconds(f.startDelay)
	}
	if set[FlagCAFile] {
		c.CAFile = f.caFile
	}
	if set[FlagKey] {
		c.Key = f.key
	}
	if set[FlagGzip] {
		c.Gzip = f.gzip
	}
	if set[FlagLogLevel] {
		c.LogLevel = f.logLevel
	}
}

// Validate проверяет обязательные поля и допустимые значения.
//
// Все найденные проблемы возвращаются одной ошибкой (errors.Join).
func (c *AgentConfig) Validate() error {
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
	if c.DeviceID == "" {
		errs = append(errs, ErrMissingDeviceID)
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %v", c.Interval))
	}
	if c.FailureBudget <= 0 {
		errs = append(errs, fmt.Errorf("failure budget must be positive, got %d", c.FailureBudget))
	}
	if c.Interface == "" {
		errs = append(errs, errors.New("network interface is required"))
	}
	if c.CommandTimeout <= 0 {
		errs = append(errs, fmt.Errorf("command timeout must be positive, got %v", c.CommandTimeout))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout))
	}
	if c.StartDelay < 0 {
		errs = append(errs, fmt.Errorf("start delay must not be negative, got %v", c.StartDelay))
	}
	switch c.MemSource {
	case MemSourceFree, MemSourceGopsutil:
	default:
		errs = append(errs, fmt.Errorf("unknown memory source %q", c.MemSource))
	}
	switch c.Schedule {
	case ScheduleDelay, ScheduleRate:
	default:
		errs = append(errs, fmt.Errorf("unknown schedule %q", c.Schedule))
	}
	return errors.Join(errs...)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid backend address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend address must start with http:// or https://, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("backend address has no host: %q", raw)
	}
	return nil
}
