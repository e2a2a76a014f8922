// Команда staticlint запускает анализатор exitcheck.
//
//	go run ./cmd/linter/staticlint ./...
package main

import (
	"github.com/RoGogDBD/sysmon-uploader/cmd/linter"
	"golang.org/x/tools/go/analysis/singlechecker"
)

func main() {
	singlechecker.Main(linter.Analyzer)
}
