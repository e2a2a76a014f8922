package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoGogDBD/sysmon-uploader/internal/config"
	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage реализует Storage поверх PostgreSQL. Схема создаётся миграциями из каталога migrations.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgres оборачивает готовый пул соединений.
func NewPostgresStorage(pool *pgxpool.Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

func (p *PostgresStorage) Close() {
	p.pool.Close()
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

// mapErr переводит ошибки pgx в ошибки хранилища.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

// exec выполняет команду и возвращает ErrNotFound, если она не затронула ни одной строки.
func (p *PostgresStorage) exec(ctx context.Context, sql string, args ...any) error {
	var tag pgconn.CommandTag
	err := config.RetryWithBackoff(ctx, func() error {
		var innerErr error
		tag, innerErr = p.pool.Exec(ctx, sql, args...)
		return innerErr
	})
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) CreateUser(ctx context.Context, u UserRecord) error {
	return p.exec(ctx,
		`INSERT INTO users (username, password_hash, is_admin) VALUES ($1, $2, $3)`,
		u.Username, u.PasswordHash, u.IsAdmin)
}

func (p *PostgresStorage) GetUser(ctx context.Context, username string) (UserRecord, error) {
	var u UserRecord
	err := config.RetryWithBackoff(ctx, func() error {
		return p.pool.QueryRow(ctx,
			`SELECT username, password_hash, is_admin FROM users WHERE username = $1`, username).
			Scan(&u.Username, &u.PasswordHash, &u.IsAdmin)
	})
	return u, mapErr(err)
}

func (p *PostgresStorage) ListUsers(ctx context.Context) ([]UserRecord, error) {
	var out []UserRecord
	err := config.RetryWithBackoff(ctx, func() error {
		rows, err := p.pool.Query(ctx, `SELECT username, password_hash, is_admin FROM users ORDER BY username`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserRecord, error) {
			var u UserRecord
			err := row.Scan(&u.Username, &u.PasswordHash, &u.IsAdmin)
			return u, err
		})
		return err
	})
	return out, mapErr(err)
}

func (p *PostgresStorage) SetPasswordHash(ctx context.Context, username, hash string) error {
	return p.exec(ctx, `UPDATE users SET password_hash = $2 WHERE username = $1`, username, hash)
}

func (p *PostgresStorage) DeleteUser(ctx context.Context, username string) error {
	return p.exec(ctx, `DELETE FROM users WHERE username = $1`, username)
}

func (p *PostgresStorage) ListDevices(ctx context.Context) ([]models.Device, error) {
	var out []models.Device
	err := config.RetryWithBackoff(ctx, func() error {
		rows, err := p.pool.Query(ctx, `SELECT device_id, name, description FROM devices ORDER BY device_id`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Device, error) {
			var d models.Device
			err := row.Scan(&d.DeviceID, &d.Name, &d.Description)
			return d, err
		})
		return err
	})
	return out, mapErr(err)
}

func (p *PostgresStorage) GetDevice(ctx context.Context, deviceID string) (models.Device, error) {
	var d models.Device
	err := config.RetryWithBackoff(ctx, func() error {
		return p.pool.QueryRow(ctx,
			`SELECT device_id, name, description FROM devices WHERE device_id = $1`, deviceID).
			Scan(&d.DeviceID, &d.Name, &d.Description)
	})
	return d, mapErr(err)
}

func (p *PostgresStorage) CreateDevice(ctx context.Context, d models.Device) error {
	return p.exec(ctx,
		`INSERT INTO devices (device_id, name, description) VALUES ($1, $2, $3)`,
		d.DeviceID, d.Name, d.Description)
}

// UpdateDevice читает, изменяет и записывает устройство в одной транзакции.
func (p *PostgresStorage) UpdateDevice(ctx context.Context, deviceID string, upd models.DeviceUpdate) (models.Device, error) {
	var d models.Device
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`SELECT device_id, name, description FROM devices WHERE device_id = $1 FOR UPDATE`, deviceID).
			Scan(&d.DeviceID, &d.Name, &d.Description); err != nil {
			return err
		}
		d = ApplyDeviceUpdate(d, upd)
		_, err := tx.Exec(ctx, `UPDATE devices SET name = $2, description = $3 WHERE device_id = $1`,
			d.DeviceID, d.Name, d.Description)
		return err
	})
	return d, mapErr(err)
}

func (p *PostgresStorage) DeleteDevice(ctx context.Context, deviceID string) error {
	return p.exec(ctx, `DELETE FROM devices WHERE device_id = $1`, deviceID)
}

const keyColumns = `key_name, data_type, normal_min, normal_max, warning_min, warning_max,
	missing_data_allowance, email_min, email_max`

func scanKey(row pgx.Row) (models.Key, error) {
	var (
		k                      models.Key
		normal, warning, email models.Range
		missing                *float64
	)
	err := row.Scan(&k.KeyName, &k.DataType,
		&normal.Min, &normal.Max, &warning.Min, &warning.Max,
		&missing, &email.Min, &email.Max)
	if err != nil {
		return models.Key{}, err
	}
	k.NormalRange = rangeOrNil(normal)
	k.WarningRange = rangeOrNil(warning)
	k.EmailAlertRange = rangeOrNil(email)
	k.MissingDataAllowance = missing
	return k, nil
}

func rangeOrNil(r models.Range) *models.Range {
	if r.Min == nil && r.Max == nil {
		return nil
	}
	return &r
}

func rangeBounds(r *models.Range) (minV, maxV *float64) {
	if r == nil {
		return nil, nil
	}
	return r.Min, r.Max
}

func keyArgs(k models.Key) []any {
	nMin, nMax := rangeBounds(k.NormalRange)
	wMin, wMax := rangeBounds(k.WarningRange)
	eMin, eMax := rangeBounds(k.EmailAlertRange)
	return []any{k.KeyName, k.DataType, nMin, nMax, wMin, wMax, k.MissingDataAllowance, eMin, eMax}
}

func (p *PostgresStorage) ListKeys(ctx context.Context) ([]models.Key, error) {
	var out []models.Key
	err := config.RetryWithBackoff(ctx, func() error {
		rows, err := p.pool.Query(ctx, `SELECT `+keyColumns+` FROM keys ORDER BY key_name`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Key, error) {
			return scanKey(row)
		})
		return err
	})
	return out, mapErr(err)
}

func (p *PostgresStorage) GetKey(ctx context.Context, name string) (models.Key, error) {
	var k models.Key
	err := config.RetryWithBackoff(ctx, func() error {
		var innerErr error
		k, innerErr = scanKey(p.pool.QueryRow(ctx, `SELECT `+keyColumns+` FROM keys WHERE key_name = $1`, name))
		return innerErr
	})
	return k, mapErr(err)
}

func (p *PostgresStorage) CreateKey(ctx context.Context, k models.Key) error {
	return p.exec(ctx, `INSERT INTO keys (`+keyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, keyArgs(k)...)
}

// UpdateKey читает, изменяет и записывает ключ в одной транзакции.
func (p *PostgresStorage) UpdateKey(ctx context.Context, name string, upd models.KeyUpdate) (models.Key, error) {
	var k models.Key
	err := p.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		k, err = scanKey(tx.QueryRow(ctx, `SELECT `+keyColumns+` FROM keys WHERE key_name = $1 FOR UPDATE`, name))
		if err != nil {
			return err
		}
		k = ApplyKeyUpdate(k, upd)
		_, err = tx.Exec(ctx, `UPDATE keys SET data_type = $2, normal_min = $3, normal_max = $4,
			warning_min = $5, warning_max = $6, missing_data_allowance = $7, email_min = $8, email_max = $9
			WHERE key_name = $1`, keyArgs(k)...)
		return err
	})
	return k, mapErr(err)
}

func (p *PostgresStorage) DeleteKey(ctx context.Context, name string) error {
	return p.exec(ctx, `DELETE FROM keys WHERE key_name = $1`, name)
}

// AddPoints вставляет все точки одной транзакцией.
func (p *PostgresStorage) AddPoints(ctx context.Context, points []DataPoint) error {
	return mapErr(p.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, pt := range points {
			var (
				num  *float64
				text *string
			)
			switch v := pt.Value.(type) {
			case float64:
				num = &v
			case string:
				text = &v
			default:
				return fmt.Errorf("unsupported value type %T for key %s", pt.Value, pt.Key)
			}
			batch.Queue(`INSERT INTO data_points (key_name, machine, value_num, value_text, ts) VALUES ($1, $2, $3, $4, $5)`,
				pt.Key, pt.Machine, num, text, pt.Timestamp.UTC())
		}
		return tx.SendBatch(ctx, batch).Close()
	}))
}

func (p *PostgresStorage) Points(ctx context.Context, machine, key string, since time.Time) ([]DataPoint, error) {
	var out []DataPoint
	err := config.RetryWithBackoff(ctx, func() error {
		rows, err := p.pool.Query(ctx, `SELECT key_name, machine, value_num, value_text, ts FROM data_points
			WHERE machine = $1 AND key_name = $2 AND ts >= $3 ORDER BY ts, id`, machine, key, since.UTC())
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (DataPoint, error) {
			var (
				pt   DataPoint
				num  *float64
				text *string
			)
			if err := row.Scan(&pt.Key, &pt.Machine, &num, &text, &pt.Timestamp); err != nil {
				return DataPoint{}, err
			}
			switch {
			case num != nil:
				pt.Value = *num
			case text != nil:
				pt.Value = *text
			}
			pt.Timestamp = pt.Timestamp.UTC()
			return pt, nil
		})
		return err
	})
	return out, mapErr(err)
}

// inTx выполняет fn в транзакции с повтором при временных ошибках.
func (p *PostgresStorage) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	return config.RetryWithBackoff(ctx, func() error {
		tx, err := p.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
}

var _ Storage = (*PostgresStorage)(nil)
