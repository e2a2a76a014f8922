package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// retryIntervals определяет интервалы ожидания между попытками повторения операции.
var retryIntervals = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// retriablePGCodes коды PostgreSQL, после которых имеет смысл повторить операцию.
var retriablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.TooManyConnections:                            {},
}

// RetryWithBackoff выполняет функцию op с повторными попытками и растущей задержкой между ними.
//
// Повтор выполняется только для временных ошибок (см. IsRetriable): сетевых ошибок
// и ошибок соединения PostgreSQL. Остальные ошибки возвращаются сразу.
// Если все попытки исчерпаны, возвращается последняя ошибка, обёрнутая в
// "operation failed after retries". Отмена ctx прерывает ожидание и возвращает ctx.Err().
func RetryWithBackoff(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= len(retryIntervals); attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		if !IsRetriable(err) {
			return err
		}
		lastErr = err
		if attempt == len(retryIntervals) {
			break
		}
		wait := retryIntervals[attempt]
		logger().Warn("retriable error",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", len(retryIntervals)+1),
			zap.Duration("retry_in", wait),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("operation failed after retries: %w", lastErr)
}

// IsRetriable определяет, является ли ошибка временной.
//
// Временными считаются сетевые ошибки (net.Error, таймауты) и ошибки PostgreSQL
// класса 08 (соединение) либо из списка retriablePGCodes. Отмена контекста временной не является.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retriablePGCodes[pgErr.Code]; ok {
			return true
		}
		return pgerrcode.IsConnectionException(pgErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return os.IsTimeout(err)
}
