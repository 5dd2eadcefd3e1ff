package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Auth проверяет общий токен синхронизации. Пустой токен отключает проверку.
type Auth struct {
	digest  [sha256.Size]byte
	enabled bool
	log     *slog.Logger
}

func New(token string, log *slog.Logger) *Auth {
	return &Auth{
		digest:  sha256.Sum256([]byte(token)),
		enabled: token != "",
		log:     log.With(slog.String("component", "auth_middleware")),
	}
}

// Enabled сообщает, требуется ли токен
func (a *Auth) Enabled() bool {
	return a.enabled
}

// Middleware возвращает middleware для Huma с сигнатурой func(ctx Context, next func(Context))
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if !a.enabled {
			next(ctx)
			return
		}

		header := ctx.Header("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !a.valid(token) {
			a.log.Warn("unauthorized request",
				slog.String("path", ctx.URL().Path),
				slog.String("remote_addr", ctx.RemoteAddr()),
			)
			a.unauthorized(ctx)
			return
		}

		next(ctx)
	}
}

func (a *Auth) valid(token string) bool {
	got := sha256.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(got[:], a.digest[:]) == 1
}

func (a *Auth) unauthorized(ctx huma.Context) {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.SetHeader("WWW-Authenticate", "Bearer")
	ctx.SetStatus(http.StatusUnauthorized)

	if err := json.NewEncoder(ctx.BodyWriter()).Encode(map[string]string{
		"error": "Unauthorized",
	}); err != nil {
		a.log.Error("json encode", slog.Any("error", err))
	}
}
