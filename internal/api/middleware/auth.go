package middleware

import (
	"context"
	"net/http"
	"strconv"
)

type ctxKey int

const userIDKey ctxKey = iota

// Auth извлекает ID пользователя из заголовка X-User-ID и кладет его в контекст
// Аутентификацию выполняет API gateway; сервис доверяет заголовку
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw != "" {
			if userID, err := strconv.ParseInt(raw, 10, 64); err == nil && userID > 0 {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID возвращает ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}
