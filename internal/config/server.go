package config

import (
	"errors"
	"flag"
	"time"
)

// Значения конфигурации сервера разработки по умолчанию.
const (
	DefaultStoreFile      = "sysmon-store.json"
	DefaultStoreInterval  = 300 * time.Second
	DefaultMigrationsPath = "migrations"
)

// ServerConfig конфигурация сервера разработки.
type ServerConfig struct {
	Address        *NetAddress
	DatabaseDSN    string
	StoreFile      string
	StoreInterval  time.Duration
	Restore        bool
	Key            string
	AuditFile      string
	AuditURL       string
	AdminUser      string
	AdminPassword  string
	TLSCert        string
	TLSKey         string
	MigrationsPath string
	LogLevel       string
}

// TLSEnabled сообщает, заданы ли сертификат и ключ для HTTPS.
func (c *ServerConfig) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// LoadServerConfig собирает конфигурацию сервера: флаги, окружение, JSON файл, значения по умолчанию.
func LoadServerConfig(args []string) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Address:        &NetAddress{Host: "localhost", Port: DefaultPort},
		StoreFile:      DefaultStoreFile,
		StoreInterval:  DefaultStoreInterval,
		Restore:        true,
		MigrationsPath: DefaultMigrationsPath,
		LogLevel:       "info",
	}

	var (
		dsn, storeFile, key, auditFile, auditURL  string
		adminUser, adminPassword, tlsCert, tlsKey string
		migrationsPath, logLevel, configPath      string
		storeInterval                             int
		restore                                   bool
	)
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	addr := ParseAddressFlag(fs)
	fs.StringVar(&dsn, FlagDatabaseDSN, "", "PostgreSQL DSN")
	fs.StringVar(&storeFile, FlagStoreFile, DefaultStoreFile, "Snapshot file path")
	fs.IntVar(&storeInterval, FlagStoreInterval, int(DefaultStoreInterval.Seconds()), "Store interval in seconds (0 writes on every change)")
	fs.BoolVar(&restore, FlagRestore, true, "Restore snapshot at startup")
	fs.StringVar(&key, FlagKey, "", "Key for verifying request signatures")
	fs.StringVar(&auditFile, FlagAuditFile, "", "Audit log file")
	fs.StringVar(&auditURL, FlagAuditURL, "", "Audit receiver URL")
	fs.StringVar(&adminUser, FlagAdminUser, "", "Bootstrap admin username")
	fs.StringVar(&adminPassword, FlagAdminPassword, "", "Bootstrap admin password")
	fs.StringVar(&tlsCert, FlagTLSCert, "", "TLS certificate file")
	fs.StringVar(&tlsKey, FlagTLSKey, "", "TLS key file")
	fs.StringVar(&migrationsPath, FlagMigrationsPath, DefaultMigrationsPath, "Migrations directory")
	fs.StringVar(&logLevel, FlagLogLevel, "info", "Log level")
	fs.StringVar(&configPath, FlagConfig, "", "Path to JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	js, err := LoadServerJSONConfig(GetConfigFilePathWithFlag(configPath))
	if err != nil {
		return nil, err
	}
	if js.Address != "" {
		if err := cfg.Address.Set(js.Address); err != nil {
			return nil, err
		}
	}
	setString(&cfg.DatabaseDSN, js.DatabaseDSN)
	setString(&cfg.StoreFile, js.StoreFile)
	setString(&cfg.Key, js.Key)
	setString(&cfg.AuditFile, js.AuditFile)
	setString(&cfg.AuditURL, js.AuditURL)
	setString(&cfg.AdminUser, js.AdminUser)
	setString(&cfg.AdminPassword, js.AdminPassword)
	setString(&cfg.TLSCert, js.TLSCert)
	setString(&cfg.TLSKey, js.TLSKey)
	setString(&cfg.MigrationsPath, js.MigrationsPath)
	setString(&cfg.LogLevel, js.LogLevel)
	if js.Restore != nil {
		cfg.Restore = *js.Restore
	}
	if js.StoreInterval != "" {
		d, err := ParseDuration(js.StoreInterval)
		if err != nil {
			return nil, err
		}
		cfg.StoreInterval = d
	}

	if err := EnvServer(cfg.Address, EnvAddress); err != nil {
		return nil, err
	}
	envStringInto(&cfg.DatabaseDSN, EnvDatabaseDSN)
	envStringInto(&cfg.StoreFile, EnvStoreFile)
	envStringInto(&cfg.Key, EnvKey)
	envStringInto(&cfg.AuditFile, EnvAuditFile)
	envStringInto(&cfg.AuditURL, EnvAuditURL)
	envStringInto(&cfg.AdminUser, EnvAdminUser)
	envStringInto(&cfg.AdminPassword, EnvAdminPassword)
	envStringInto(&cfg.TLSCert, EnvTLSCert)
	envStringInto(&cfg.TLSKey, EnvTLSKey)
	envStringInto(&cfg.MigrationsPath, EnvMigrationsPath)
	envStringInto(&cfg.LogLevel, EnvLogLevel)
	if err := errors.Join(
		envSecondsInto(&cfg.StoreInterval, EnvStoreInterval),
		envBoolInto(&cfg.Restore, EnvRestore),
	); err != nil {
		return nil, err
	}

	set := visited(fs)
	if set[FlagAddress] {
		cfg.Address = addr
	}
	if set[FlagDatabaseDSN] {
		cfg.DatabaseDSN = dsn
	}
	if set[FlagStoreFile] {
		cfg.StoreFile = storeFile
	}
	if set[FlagStoreInterval] {
		cfg.StoreInterval = time.Duration(storeInterval) * time.Second
	}
	if set[FlagRestore] {
		cfg.Restore = restore
	}
	if set[FlagKey] {
		cfg.Key = key
	}
	if set[FlagAuditFile] {
		cfg.AuditFile = auditFile
	}
	if set[FlagAuditURL] {
		cfg.AuditURL = auditURL
	}
	if set[FlagAdminUser] {
		cfg.AdminUser = adminUser
	}
	if set[FlagAdminPassword] {
		cfg.AdminPassword = adminPassword
	}
	if set[FlagTLSCert] {
		cfg.TLSCert = tlsCert
	}
	if set[FlagTLSKey] {
		cfg.TLSKey = tlsKey
	}
	if set[FlagMigrationsPath] {
		cfg.MigrationsPath = migrationsPath
	}
	if set[FlagLogLevel] {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек сервера.
func (c *ServerConfig) Validate() error {
	var errs []error
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("tls certificate and key must be set together"))
	}
	if (c.AdminUser == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("admin username and password must be set together"))
	}
	if c.StoreInterval < 0 {
		errs = append(errs, errors.New("store interval must not be negative"))
	}
	return errors.Join(errs...)
}
