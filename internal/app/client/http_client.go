package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"watchkeeper/internal/app/client/config"
	domainsync "watchkeeper/internal/domain/sync"
	"watchkeeper/internal/domain/watchlist"

	"golang.org/x/exp/slog"
)

// Transport доставляет пакет операций на сервер
type Transport interface {
	Sync(ctx context.Context, ops []watchlist.Operation) (*domainsync.SyncResponse, error)
	HealthCheck(ctx context.Context) error
}

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &httpClient{
		client:    client,
		log:       log.With(slog.String("component", "http_client")),
		baseURL:   cfg.BaseURL(),
		token:     cfg.SyncToken,
		userAgent: "Watchkeeper-Client/1.0",
	}
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return &watchlist.TransportError{Op: "health", Err: err}
	}
	return h.parseResponse("health", resp, nil)
}

// Sync отправляет все операции одним запросом
func (h *httpClient) Sync(ctx context.Context, ops []watchlist.Operation) (*domainsync.SyncResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/watchlist/sync", domainsync.SyncRequest{Operations: ops})
	if err != nil {
		return nil, &watchlist.TransportError{Op: "sync", Err: err}
	}

	var out domainsync.SyncResponse
	if err := h.parseResponse("sync", resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List возвращает канонический набор сервера
func (h *httpClient) List(ctx context.Context) ([]watchlist.Item, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/watchlist", nil)
	if err != nil {
		return nil, &watchlist.TransportError{Op: "list", Err: err}
	}

	var out domainsync.ListResponse
	if err := h.parseResponse("list", resp, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Status возвращает статус слияния на сервере
func (h *httpClient) Status(ctx context.Context) (*domainsync.Status, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/sync/status", nil)
	if err != nil {
		return nil, &watchlist.TransportError{Op: "status", Err: err}
	}

	var out domainsync.Status
	if err := h.parseResponse("status", resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Debug("Запрос не выполнен", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("сервер недоступен: %w", err)
	}

	h.log.Debug("Запрос выполнен",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}

// parseResponse декодирует успешный ответ или превращает неуспешный в TransportError
func (h *httpClient) parseResponse(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &watchlist.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        errors.New(errorMessage(body, resp.Status)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &watchlist.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("ошибка разбора ответа: %w", err)}
	}
	return nil
}

// errorMessage извлекает текст ошибки из ответа сервера (huma error model
// или {"error": ...})
func errorMessage(body []byte, status string) string {
	var e struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Detail != "":
			return e.Detail
		case e.Error != "":
			return e.Error
		case e.Title != "":
			return e.Title
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return status
}
