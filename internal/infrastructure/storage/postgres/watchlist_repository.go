package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/domain/watchlist"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

const maxUpdateAttempts = 5

var ErrUpdateContention = errors.New("too many concurrent inserts for item")

type WatchlistRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewWatchlistRepository(pool *pgxpool.Pool, log *slog.Logger) *WatchlistRepository {
	return &WatchlistRepository{
		pool: pool,
		log:  log.With("component", "watchlist_repository"),
	}
}

const selectColumns = `id, title, poster_url, created_at_ns, updated_at_ns, is_in_watchlist, vector_clock, last_updated_by`

// Update выполняет чтение-изменение-запись в одной транзакции. Существующая
// строка блокируется через FOR UPDATE; отсутствующая вставляется с
// ON CONFLICT DO NOTHING, и если другой писатель успел первым, попытка
// повторяется уже над его версией.
func (r *WatchlistRepository) Update(ctx context.Context, id string, fn domainsync.UpdateFunc) (watchlist.Item, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		item, retry, err := r.tryUpdate(ctx, id, fn)
		if err != nil {
			return watchlist.Item{}, err
		}
		if !retry {
			return item, nil
		}
		r.log.Debug("insert race, retrying", "item_id", id, "attempt", attempt)
	}
	return watchlist.Item{}, fmt.Errorf("%w %q", ErrUpdateContention, id)
}

func (r *WatchlistRepository) tryUpdate(ctx context.Context, id string, fn domainsync.UpdateFunc) (watchlist.Item, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return watchlist.Item{}, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// после Commit возвращает pgx.ErrTxClosed
		_ = tx.Rollback(ctx)
	}()

	query := `SELECT ` + selectColumns + ` FROM watchlist_items WHERE id = $1 FOR UPDATE`

	var current *watchlist.Item
	existing, err := scanItem(tx.QueryRow(ctx, query, id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		r.log.Error("failed to lock item", "item_id", id, "error", err)
		return watchlist.Item{}, false, fmt.Errorf("lock item: %w", err)
	default:
		current = existing
	}

	next, err := fn(current)
	if err != nil {
		return watchlist.Item{}, false, err
	}
	if next.ID != id {
		return watchlist.Item{}, false, fmt.Errorf("%w: %q vs %q", domainsync.ErrItemMismatch, id, next.ID)
	}

	clock, err := json.Marshal(next.VectorClock)
	if err != nil {
		return watchlist.Item{}, false, fmt.Errorf("marshal vector clock: %w", err)
	}

	if current == nil {
		const insert = `
			INSERT INTO watchlist_items
				(id, title, poster_url, created_at_ns, updated_at_ns, is_in_watchlist, vector_clock, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO NOTHING`

		tag, err := tx.Exec(ctx, insert,
			next.ID, next.Title, next.PosterURL, unixNanos(next.CreatedAt), unixNanos(next.UpdatedAt),
			next.IsInWatchlist, clock, next.LastUpdatedBy)
		if err != nil {
			return watchlist.Item{}, false, fmt.Errorf("insert item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return watchlist.Item{}, true, nil
		}
	} else {
		const update = `
			UPDATE watchlist_items
			SET title = $2, poster_url = $3, created_at_ns = $4, updated_at_ns = $5,
			    is_in_watchlist = $6, vector_clock = $7, last_updated_by = $8
			WHERE id = $1`

		if _, err := tx.Exec(ctx, update,
			next.ID, next.Title, next.PosterURL, unixNanos(next.CreatedAt), unixNanos(next.UpdatedAt),
			next.IsInWatchlist, clock, next.LastUpdatedBy); err != nil {
			return watchlist.Item{}, false, fmt.Errorf("update item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return watchlist.Item{}, false, fmt.Errorf("commit: %w", err)
	}

	return next, false, nil
}

func (r *WatchlistRepository) Get(ctx context.Context, id string) (*watchlist.Item, error) {
	query := `SELECT ` + selectColumns + ` FROM watchlist_items WHERE id = $1`

	it, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (r *WatchlistRepository) List(ctx context.Context) ([]watchlist.Item, error) {
	query := `SELECT ` + selectColumns + ` FROM watchlist_items ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list items", "error", err)
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []watchlist.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return items, nil
}

func scanItem(row pgx.Row) (*watchlist.Item, error) {
	var (
		it               watchlist.Item
		clock            []byte
		created, updated int64
	)

	if err := row.Scan(
		&it.ID,
		&it.Title,
		&it.PosterURL,
		&created,
		&updated,
		&it.IsInWatchlist,
		&clock,
		&it.LastUpdatedBy,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(clock, &it.VectorClock); err != nil {
		return nil, fmt.Errorf("decode vector clock of %q: %w", it.ID, err)
	}
	it.CreatedAt = fromUnixNanos(created)
	it.UpdatedAt = fromUnixNanos(updated)

	return &it, nil
}

func unixNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnixNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
