// Package api — handlers.go: обработчики логических операций движка.
// Формат проводов спецификой движка не является: это тонкий JSON-слой
// поверх операций сервиса.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/common"
	"emuready.app/trust-engine/internal/features/trust"
)

// Handler обрабатывает HTTP-запросы к движку.
type Handler struct {
	service *trust.Service
	limiter *trust.Limiter
}

// NewHandler создаёт обработчик.
func NewHandler(service *trust.Service, limiter *trust.Limiter) *Handler {
	return &Handler{service: service, limiter: limiter}
}

// actionRequest — тело POST /v1/trust/actions и /actions/reverse.
type actionRequest struct {
	UserID   string         `json:"user_id"`
	Action   string         `json:"action"`
	Metadata trust.Metadata `json:"metadata,omitempty"`
}

// HandleApplyAction — POST /v1/trust/actions.
func (h *Handler) HandleApplyAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.service.ApplyAction(r.Context(), req.UserID, trust.Action(req.Action), req.Metadata)
	respondMutation(w, err)
}

// HandleReverseAction — POST /v1/trust/actions/reverse.
func (h *Handler) HandleReverseAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.service.ReverseAction(r.Context(), req.UserID, trust.Action(req.Action), req.Metadata)
	respondMutation(w, err)
}

// HandleAllowance — GET /v1/trust/allowance?user_id=&action=.
// Консультативная проверка лимитов: отказ — не ошибка, а {"allowed": false}.
func (h *Handler) HandleAllowance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	action := trust.Action(r.URL.Query().Get("action"))
	if userID == "" || action == "" {
		writeError(w, http.StatusBadRequest, "нужны параметры user_id и action")
		return
	}

	allowed, err := h.limiter.IsActionAllowed(r.Context(), userID, action)
	if err != nil {
		log.WithError(err).Error("Ошибка проверки лимитов")
		writeError(w, http.StatusInternalServerError, "ошибка проверки лимитов")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

// HandleUserLevel — GET /v1/trust/users/{userID}.
func (h *Handler) HandleUserLevel(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	info, err := h.service.LevelOf(r.Context(), userID)
	if err != nil {
		respondReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleStats — GET /v1/trust/stats?user_id=&limit=.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	stats, err := h.service.Stats(r.Context(), userID, limit)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики")
		writeError(w, http.StatusInternalServerError, "ошибка получения статистики")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// adjustmentRequest — тело POST /v1/trust/adjustments.
type adjustmentRequest struct {
	UserID      string `json:"user_id"`
	Adjustment  int    `json:"adjustment"`
	Reason      string `json:"reason"`
	AdminUserID string `json:"admin_user_id"`
}

// HandleManualAdjustment — POST /v1/trust/adjustments (только админ).
func (h *Handler) HandleManualAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.service.ApplyManualAdjustment(r.Context(), req.UserID, req.Adjustment, req.Reason, req.AdminUserID)
	respondMutation(w, err)
}

// HandleBonusRun — POST /v1/trust/bonus/run (только админ).
// Идемпотентен в пределах месяца, повторный запуск безопасен.
func (h *Handler) HandleBonusRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.ApplyMonthlyBonus(r.Context())
	if err != nil {
		log.WithError(err).Error("Ошибка прогона месячного бонуса")
		writeError(w, http.StatusInternalServerError, "ошибка прогона бонуса")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleUserAudit — GET /v1/trust/users/{userID}/audit (только админ).
func (h *Handler) HandleUserAudit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	report, err := h.service.VerifyLedger(r.Context(), userID)
	if err != nil {
		respondReadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// decodeBody разбирает JSON-тело; при ошибке сам пишет 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return false
	}
	return true
}

// respondMutation переводит ошибку мутации в HTTP-статус.
func respondMutation(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrUnknownAction), errors.Is(err, common.ErrZeroAdjustment):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		// Инфраструктурный сбой: транзакция откатилась целиком,
		// повтор запроса безопасен
		log.WithError(err).Error("Ошибка мутации счёта")
		writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
	}
}

// respondReadError переводит ошибку чтения в HTTP-статус.
func respondReadError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	log.WithError(err).Error("Ошибка чтения")
	writeError(w, http.StatusInternalServerError, "внутренняя ошибка")
}

// writeJSON сериализует ответ.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Ошибка сериализации ответа")
	}
}

// writeError пишет JSON-ошибку.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
