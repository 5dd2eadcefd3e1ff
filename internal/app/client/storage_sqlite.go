package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"watchkeeper/internal/domain/watchlist"
	"watchkeeper/internal/infrastructure/migration"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteStorage struct {
	db *sql.DB
}

// queryer - общее подмножество *sql.DB и *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := migration.NewMigration(migration.SQLite, migration.SQLiteURL(path), migration.DefaultEngine).Up(); err != nil {
		return nil, fmt.Errorf("ошибка миграции базы данных: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия базы данных: %w", err)
	}

	// Транзакции одного процесса выполняются строго последовательно
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) Get(ctx context.Context, id string) (*watchlist.Item, error) {
	it, err := getItem(ctx, s.db, id)
	return it, storageErr("get", err)
}

func (s *SQLiteStorage) GetAll(ctx context.Context) ([]watchlist.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, poster_url, created_at, updated_at, is_in_watchlist, vector_clock, last_updated_by
		FROM watchlist_items
		ORDER BY id
	`)
	if err != nil {
		return nil, storageErr("get all", err)
	}
	defer rows.Close()

	items := make([]watchlist.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("get all", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("get all", err)
	}

	return items, nil
}

func (s *SQLiteStorage) Put(ctx context.Context, item watchlist.Item) error {
	return storageErr("put", putItem(ctx, s.db, item))
}

func (s *SQLiteStorage) PutMany(ctx context.Context, items []watchlist.Item) error {
	return storageErr("put many", s.inTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			if err := putItem(ctx, tx, it); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *SQLiteStorage) AppendPending(ctx context.Context, op watchlist.Operation) error {
	return storageErr("append pending", appendPending(ctx, s.db, op))
}

func (s *SQLiteStorage) ListPending(ctx context.Context) ([]watchlist.Operation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT op_id, type, payload FROM pending_operations ORDER BY seq`)
	if err != nil {
		return nil, storageErr("list pending", err)
	}
	defer rows.Close()

	var ops []watchlist.Operation
	for rows.Next() {
		var (
			op      watchlist.Operation
			payload string
		)
		if err := rows.Scan(&op.OpID, &op.Type, &payload); err != nil {
			return nil, storageErr("list pending", err)
		}
		op.Payload = json.RawMessage(payload)
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list pending", err)
	}

	return ops, nil
}

func (s *SQLiteStorage) ClearPending(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_operations`)
	return storageErr("clear pending", err)
}

func (s *SQLiteStorage) DeletePending(ctx context.Context, opIDs []string) error {
	return storageErr("delete pending", deletePending(ctx, s.db, opIDs))
}

func (s *SQLiteStorage) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_operations`).Scan(&n)
	return n, storageErr("count pending", err)
}

func (s *SQLiteStorage) ApplyLocal(ctx context.Context, id string, fn LocalMutation) (watchlist.Item, error) {
	var next watchlist.Item

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getItem(ctx, tx, id)
		if err != nil {
			return storageErr("apply local", err)
		}

		var op watchlist.Operation
		next, op, err = fn(current)
		if err != nil {
			return err
		}

		if err := putItem(ctx, tx, next); err != nil {
			return storageErr("apply local", err)
		}
		return storageErr("apply local", appendPending(ctx, tx, op))
	})
	if err != nil {
		var sErr *watchlist.StorageError
		if !errors.As(err, &sErr) && !watchlist.IsValidation(err) {
			err = storageErr("apply local", err)
		}
		return watchlist.Item{}, err
	}

	return next, nil
}

func (s *SQLiteStorage) ApplyRemote(ctx context.Context, items []watchlist.Item, ackOpIDs []string) ([]watchlist.Item, error) {
	applied := make([]watchlist.Item, 0, len(items))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		for _, remote := range items {
			current, err := getItem(ctx, tx, remote.ID)
			if err != nil {
				return err
			}

			merged, err := mergeRemote(current, remote)
			if err != nil {
				return err
			}

			if err := putItem(ctx, tx, merged); err != nil {
				return err
			}
			applied = append(applied, merged)
		}

		return deletePending(ctx, tx, ackOpIDs)
	})
	if err != nil {
		return nil, storageErr("apply remote", err)
	}

	return applied, nil
}

func (s *SQLiteStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w; rollback: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func getItem(ctx context.Context, q queryer, id string) (*watchlist.Item, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, title, poster_url, created_at, updated_at, is_in_watchlist, vector_clock, last_updated_by
		FROM watchlist_items
		WHERE id = ?
	`, id)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func putItem(ctx context.Context, q queryer, it watchlist.Item) error {
	clock, err := json.Marshal(it.VectorClock)
	if err != nil {
		return fmt.Errorf("ошибка сериализации часов: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO watchlist_items (id, title, poster_url, created_at, updated_at, is_in_watchlist, vector_clock, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			poster_url = excluded.poster_url,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			is_in_watchlist = excluded.is_in_watchlist,
			vector_clock = excluded.vector_clock,
			last_updated_by = excluded.last_updated_by
	`, it.ID, it.Title, it.PosterURL,
		it.CreatedAt.UTC().Format(sqliteTimeLayout), it.UpdatedAt.UTC().Format(sqliteTimeLayout),
		it.IsInWatchlist, string(clock), it.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("ошибка сохранения записи %s: %w", it.ID, err)
	}
	return nil
}

func appendPending(ctx context.Context, q queryer, op watchlist.Operation) error {
	mutation, err := op.Decode()
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO pending_operations (op_id, item_id, type, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(op_id) DO NOTHING
	`, op.OpID, mutation.Snapshot().ID, string(op.Type), string(op.Payload), time.Now().UTC().Format(sqliteTimeLayout))
	if err != nil {
		return fmt.Errorf("ошибка добавления операции %s: %w", op.OpID, err)
	}
	return nil
}

func deletePending(ctx context.Context, q queryer, opIDs []string) error {
	if len(opIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(opIDs)), ",")
	args := make([]any, len(opIDs))
	for i, id := range opIDs {
		args[i] = id
	}

	_, err := q.ExecContext(ctx, `DELETE FROM pending_operations WHERE op_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("ошибка удаления подтвержденных операций: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*watchlist.Item, error) {
	var (
		it                   watchlist.Item
		createdAt, updatedAt string
		clock                string
	)

	if err := row.Scan(&it.ID, &it.Title, &it.PosterURL, &createdAt, &updatedAt,
		&it.IsInWatchlist, &clock, &it.LastUpdatedBy); err != nil {
		return nil, err
	}

	var err error
	if it.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("ошибка разбора created_at записи %s: %w", it.ID, err)
	}
	if it.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("ошибка разбора updated_at записи %s: %w", it.ID, err)
	}
	if err := json.Unmarshal([]byte(clock), &it.VectorClock); err != nil {
		return nil, fmt.Errorf("ошибка разбора часов записи %s: %w", it.ID, err)
	}

	return &it, nil
}
