package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig возвращает конфигурацию TLS для исходящих запросов.
//
// Проверка сертификатов всегда включена. Если caFile задан, PEM-сертификаты из него
// добавляются к системному пулу доверенных корней (для самоподписанных сертификатов бэкенда).
func TLSConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}

	pemData, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle: %w", err)
	}

	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("no certificates found in CA bundle %s", caFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}
