package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Константы для имен переменных окружения
const (
	EnvAddress        = "ADDRESS"
	EnvUsername       = "API_USERNAME"
	EnvPassword       = "API_PASSWORD"
	EnvDeviceID       = "DEVICE_ID"
	EnvInterval       = "UPDATE_INTERVAL"
	EnvInterface      = "NET_INTERFACE"
	EnvFailureBudget  = "FAILURE_BUDGET"
	EnvCPUTempPath    = "CPU_TEMP_PATH"
	EnvGPUTool        = "GPU_TOOL"
	EnvMemSource      = "MEM_SOURCE"
	EnvHostMetrics    = "HOST_METRICS"
	EnvCommandTimeout = "COMMAND_TIMEOUT"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvSchedule       = "SCHEDULE"
	EnvStartDelay     = "START_DELAY"
	EnvCAFile         = "CA_FILE"
	EnvKey            = "KEY"
	EnvGzip           = "GZIP"
	EnvLogLevel       = "LOG_LEVEL"
	EnvConfig         = "CONFIG"

	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvStoreFile      = "FILE_STORAGE_PATH"
	EnvStoreInterval  = "STORE_INTERVAL"
	EnvRestore        = "RESTORE"
	EnvAuditFile      = "AUDIT_FILE"
	EnvAuditURL       = "AUDIT_URL"
	EnvAdminUser      = "ADMIN_USERNAME"
	EnvAdminPassword  = "ADMIN_PASSWORD"
	EnvTLSCert        = "TLS_CERT"
	EnvTLSKey         = "TLS_KEY"
	EnvMigrationsPath = "MIGRATIONS_PATH"
)

// Константы для флагов командной строки
const (
	FlagAddress        = "a"
	FlagUsername       = "u"
	FlagPassword       = "P"
	FlagDeviceID       = "d"
	FlagInterval       = "i"
	FlagInterface      = "n"
	FlagFailureBudget  = "b"
	FlagCPUTempPath    = "cpu-temp-path"
	FlagGPUTool        = "gpu-tool"
	FlagMemSource      = "mem-source"
	FlagHostMetrics    = "host-metrics"
	FlagCommandTimeout = "t"
	FlagRequestTimeout = "request-timeout"
	FlagSchedule       = "schedule"
	FlagStartDelay     = "start-delay"
	FlagCAFile         = "ca-file"
	FlagKey            = "k"
	FlagGzip           = "gzip"
	FlagLogLevel       = "log-level"
	FlagConfig         = "c"

	FlagDatabaseDSN    = "d"
	FlagStoreFile      = "f"
	FlagStoreInterval  = "i"
	FlagRestore        = "r"
	FlagAuditFile      = "audit-file"
	FlagAuditURL       = "audit-url"
	FlagAdminUser      = "admin-user"
	FlagAdminPassword  = "admin-password"
	FlagTLSCert        = "tls-cert"
	FlagTLSKey         = "tls-key"
	FlagMigrationsPath = "migrations"
)

// AgentJSONConfig представляет конфигурацию агента в формате JSON.
//
// Длительности задаются строками в формате time.ParseDuration ("5s", "1m").
type AgentJSONConfig struct {
	Address        string `json:"address"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	DeviceID       string `json:"device_id"`
	Interval       string `json:"interval"`
	Interface      string `json:"interface"`
	FailureBudget  *int   `json:"failure_budget"`
	CPUTempPath    string `json:"cpu_temp_path"`
	GPUTool        string `json:"gpu_tool"`
	MemSource      string `json:"mem_source"`
	HostMetrics    *bool  `json:"host_metrics"`
	CommandTimeout string `json:"command_timeout"`
	RequestTimeout string `json:"request_timeout"`
	Schedule       string `json:"schedule"`
	StartDelay     string `json:"start_delay"`
	CAFile         string `json:"ca_file"`
	Key            string `json:"key"`
	Gzip           *bool  `json:"gzip"`
	LogLevel       string `json:"log_level"`
}

// AdminJSONConfig представляет конфигурацию административного CLI в формате JSON.
type AdminJSONConfig struct {
	Address        string `json:"address"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	CAFile         string `json:"ca_file"`
	RequestTimeout string `json:"request_timeout"`
	LogLevel       string `json:"log_level"`
}

// ServerJSONConfig представляет конфигурацию сервера разработки в формате JSON.
type ServerJSONConfig struct {
	Address        string `json:"address"`
	DatabaseDSN    string `json:"database_dsn"`
	StoreFile      string `json:"store_file"`
	StoreInterval  string `json:"store_interval"`
	Restore        *bool  `json:"restore"`
	Key            string `json:"key"`
	AuditFile      string `json:"audit_file"`
	AuditURL       string `json:"audit_url"`
	AdminUser      string `json:"admin_user"`
	AdminPassword  string `json:"admin_password"`
	TLSCert        string `json:"tls_cert"`
	TLSKey         string `json:"tls_key"`
	MigrationsPath string `json:"migrations_path"`
	LogLevel       string `json:"log_level"`
}

// loadJSONConfig обобщенная функция для загрузки JSON конфигурации.
func loadJSONConfig(filePath string, v interface{}) error {
	if filePath == "" {
		return nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadAgentJSONConfig загружает конфигурацию агента из JSON файла.
// Пустой путь даёт пустую конфигурацию.
func LoadAgentJSONConfig(filePath string) (*AgentJSONConfig, error) {
	cfg := &AgentJSONConfig{}
	if err := loadJSONConfig(filePath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAdminJSONConfig загружает конфигурацию CLI из JSON файла.
func LoadAdminJSONConfig(filePath string) (*AdminJSONConfig, error) {
	cfg := &AdminJSONConfig{}
	if err := loadJSONConfig(filePath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadServerJSONConfig загружает конфигурацию сервера из JSON файла.
func LoadServerJSONConfig(filePath string) (*ServerJSONConfig, error) {
	cfg := &ServerJSONConfig{}
	if err := loadJSONConfig(filePath, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseDuration парсит строку длительности в формате "1s", "1m", "1h".
// Если строка пуста, возвращает 0 и nil.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}

	return d, nil
}

// GetConfigFilePathWithFlag получает путь к файлу конфигурации, учитывая явно переданный флаг.
// Используется после разбора флагов.
func GetConfigFilePathWithFlag(flagValue string) string {
	// Флаги имеют больший приоритет
	if flagValue != "" {
		return flagValue
	}
	return EnvString(EnvConfig)
}
