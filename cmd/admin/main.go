// Команда admin выполняет административные операции бэкенда: пользователи,
// устройства, ключи и данные. Каждая подкоманда выполняет вход и один или
// несколько запросов.
//
// Использование:
//
//	admin [флаги] user register|list|passwd|delete ...
//	admin [флаги] device list|create|update|delete|delete-all ...
//	admin [флаги] key list|get|create|update|delete|delete-all|import ...
//	admin [флаги] data upload|daily|month ...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	"github.com/RoGogDBD/sysmon-uploader/internal/gateway"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"go.uber.org/zap"
)

// Коды завершения процесса.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usage = `usage: admin [-a url] [-u user] [-P password] <group> <command> [args]

groups:
  user    register <username> <password> [-admin] | list | passwd <username> <new> | delete <username>
  device  list | create <id> <name> [description] | update <id> [-name N] [-description D] | delete <id> | delete-all
  key     list | get <name> | create <name> <float|message> <missingDataAllowance> [range flags]
          update <name> [-type T] [-missing S] [range flags] | delete <name> | delete-all | import <file.csv>
  data    upload <key> <machine> <value> [timestamp] | daily <device> <range> <key>... | month <device> <key>

range flags: -normal min:max -warning min:max -email min:max
`

// errUsage ошибка разбора аргументов подкоманды.
var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, rest, err := config.LoadAdminConfig(args)
	if err != nil {
		fmt.Fprintf(stderr, "admin: %v\n", err)
		return exitUsage
	}
	if len(rest) < 2 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "admin: %v\n", err)
		return exitUsage
	}

	logger, err := config.Initialize(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "admin: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	client, err := gateway.New(gateway.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
		CAFile:  cfg.CAFile,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "admin: %v\n", err)
		return exitUsage
	}

	cmd, ok := lookup(rest[0], rest[1])
	if !ok {
		fmt.Fprintf(stderr, "admin: unknown command %q\n%s", rest[0]+" "+rest[1], usage)
		return exitUsage
	}

	token, err := client.Login(ctx, models.Credentials{Username: cfg.Username, Password: cfg.Password})
	if err != nil {
		logger.Debug("login failed", zap.Error(err))
		fmt.Fprintf(stderr, "admin: login to %s: %v\n", client.BaseURL(), err)
		return exitFailure
	}

	c := &cli{client: client, token: token, out: stdout}
	if err := cmd(ctx, c, rest[2:]); err != nil {
		fmt.Fprintf(stderr, "admin: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usage)
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}
