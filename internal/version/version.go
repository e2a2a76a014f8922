// Package version хранит сведения о сборке, заданные через -ldflags:
//
//	go build -ldflags "-X github.com/RoGogDBD/sysmon-uploader/internal/version.buildVersion=v1.0.0"
package version

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

var (
	// buildVersion версия сборки приложения.
	buildVersion string
	// buildDate дата сборки приложения.
	buildDate string
	// buildCommit хеш коммита сборки.
	buildCommit string
)

// Info сведения о сборке.
type Info struct {
	Version string
	Date    string
	Commit  string
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Get возвращает сведения о сборке; незаданные поля равны "N/A".
func Get() Info {
	return Info{Version: orNA(buildVersion), Date: orNA(buildDate), Commit: orNA(buildCommit)}
}

// Fprint выводит сведения о сборке в w.
func Fprint(w io.Writer) {
	info := Get()
	fmt.Fprintf(w, "Build version: %s\n", info.Version)
	fmt.Fprintf(w, "Build date: %s\n", info.Date)
	fmt.Fprintf(w, "Build commit: %s\n", info.Commit)
}

// Fields возвращает сведения о сборке в виде полей zap для стартовой записи лога.
func Fields() []zap.Field {
	info := Get()
	return []zap.Field{
		zap.String("build_version", info.Version),
		zap.String("build_date", info.Date),
		zap.String("build_commit", info.Commit),
	}
}
