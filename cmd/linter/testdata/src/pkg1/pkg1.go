package pkg

import (
	"log"
	"os"

	"go.uber.org/zap"
)

func FuncWithPanic() {
	panic("boom") // want "use of builtin panic outside main.main"
}

func FuncWithFatal() {
	log.Fatalf("%s", "outside main") // want "call to log.Fatalf outside main.main"
}

func FuncWithExit() {
	os.Exit(1) // want "call to os.Exit outside main.main"
}

func FuncWithZapFatal(logger *zap.Logger) {
	logger.Fatal("sensor failed") // want "call to zap.Logger.Fatal outside main.main"
}

func FuncWithSugarFatal(logger *zap.SugaredLogger) {
	logger.Fatalw("upload failed") // want "call to zap.SugaredLogger.Fatalw outside main.main"
}

var initExit = func() { os.Exit(2) } // want "call to os.Exit outside main.main"

type fataler struct{}

func (fataler) Fatal(string) {}

func FuncAllowed(logger *zap.Logger) {
	log.Println("ok")
	logger.Error("not fatal")
	fataler{}.Fatal("user type")
}
