// Package catalog получает отображаемые данные фильмов из TMDB
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/exp/slog"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	imageBaseURL    = "https://image.tmdb.org/t/p"
	tmdbPosterSize  = "w500"
	defaultAttempts = 3
)

var ErrNotConfigured = errors.New("tmdb access token is not configured")

// Metadata данные каталога для записи списка
type Metadata struct {
	Title           string `json:"title"`
	PosterReference string `json:"posterReference,omitempty"`
	ReleaseYear     int    `json:"releaseYear,omitempty"`
	Overview        string `json:"overview,omitempty"`
}

// StatusError неуспешный ответ TMDB
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb request failed: %s", e.Status)
}

type Client struct {
	baseURL  string
	token    string
	httpc    *http.Client
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

type Option func(*Client)

// WithBaseURL меняет адрес API (используется в тестах)
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithRetryDelay задает начальную задержку между попытками
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

func New(token string, log *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		token:    strings.TrimSpace(token),
		httpc:    &http.Client{Timeout: 15 * time.Second},
		attempts: defaultAttempts,
		delay:    300 * time.Millisecond,
		log:      log.With(slog.String("component", "catalog")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

type movieResponse struct {
	Title       string `json:"title"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
}

// FetchItemMetadata возвращает данные фильма по идентификатору TMDB
func (c *Client) FetchItemMetadata(ctx context.Context, id string) (*Metadata, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	endpoint := c.baseURL + "/movie/" + url.PathEscape(id)

	var movie movieResponse
	if err := c.doGET(ctx, endpoint, &movie); err != nil {
		return nil, err
	}

	return &Metadata{
		Title:           movie.Title,
		PosterReference: posterURL(movie.PosterPath),
		ReleaseYear:     parseYear(movie.ReleaseDate),
		Overview:        movie.Overview,
	}, nil
}

// doGET выполняет GET с повтором при сетевых ошибках, 429 и 5xx
func (c *Client) doGET(ctx context.Context, endpoint string, v any) error {
	return retry.Do(
		func() error {
			return c.get(ctx, endpoint, v)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug("Повтор запроса к TMDB", "attempt", n+1, "error", err)
		}),
	)
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode tmdb response: %w", err))
	}
	return nil
}

func retryable(err error) bool {
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.StatusCode == http.StatusTooManyRequests || sErr.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return imageBaseURL + "/" + tmdbPosterSize + "/" + strings.TrimPrefix(path, "/")
}

func parseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
