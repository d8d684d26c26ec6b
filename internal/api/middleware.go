// Package api — middleware.go: логирование запросов и админ-доступ.
package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/common"
)

// requestLogger логирует каждый запрос с request id и длительностью.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()

		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.status,
			"duration":   time.Since(start).String(),
		}).Debug("HTTP-запрос обработан")
	})
}

// statusWriter запоминает код ответа для лога.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireAdmin пропускает запрос только с валидным токеном
// в заголовке X-Admin-Token.
func requireAdmin(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if token == "" || !verifyArgon2id(token, tokenHash) {
				log.WithField("path", r.URL.Path).Warn("Отклонён запрос без валидного админ-токена")
				writeError(w, http.StatusUnauthorized, common.ErrNotAdmin.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
