// Package trust — catalog.go содержит статический каталог trust-действий.
// Каталог — неизменяемая таблица процесса: определяется при старте
// и никогда не мутирует.
package trust

import (
	"fmt"

	"emuready.app/trust-engine/internal/common"
)

// Action — вид trust-действия из фиксированного набора.
type Action string

// Каталогизированные виды действий.
const (
	ActionUpvote           Action = "UPVOTE"
	ActionDownvote         Action = "DOWNVOTE"
	ActionUpvoteReceived   Action = "UPVOTE_RECEIVED"
	ActionDownvoteReceived Action = "DOWNVOTE_RECEIVED"
	ActionListingCreated   Action = "LISTING_CREATED"
	ActionListingApproved  Action = "LISTING_APPROVED"
	ActionListingRejected  Action = "LISTING_REJECTED"
	ActionMonthlyBonus     Action = "MONTHLY_ACTIVE_BONUS"
	ActionReportConfirmed  Action = "REPORT_CONFIRMED"
	ActionReportDismissed  Action = "REPORT_DISMISSED"
	// У админ-корректировок номинальный вес 0: реальная дельта
	// передаётся динамически при вызове (см. service.go).
	ActionAdminAdjustPositive Action = "ADMIN_ADJUSTMENT_POSITIVE"
	ActionAdminAdjustNegative Action = "ADMIN_ADJUSTMENT_NEGATIVE"
)

// catalogEntry — вес и описание одного вида действия.
type catalogEntry struct {
	Weight      int
	Description string
}

// catalog — таблица «вид действия → вес».
var catalog = map[Action]catalogEntry{
	ActionUpvote:              {1, "Отдан голос «за»"},
	ActionDownvote:            {-1, "Отдан голос «против»"},
	ActionUpvoteReceived:      {2, "Получен голос «за»"},
	ActionDownvoteReceived:    {-1, "Получен голос «против»"},
	ActionListingCreated:      {1, "Создан листинг"},
	ActionListingApproved:     {4, "Листинг одобрен модерацией"},
	ActionListingRejected:     {-8, "Листинг отклонён модерацией"},
	ActionMonthlyBonus:        {5, "Месячный бонус за активность"},
	ActionReportConfirmed:     {3, "Жалоба подтверждена"},
	ActionReportDismissed:     {-2, "Жалоба отклонена"},
	ActionAdminAdjustPositive: {0, "Ручная корректировка администратора (+)"},
	ActionAdminAdjustNegative: {0, "Ручная корректировка администратора (−)"},
}

// WeightOf возвращает вес действия из каталога.
// Для неизвестного вида возвращает common.ErrUnknownAction — это
// ошибка программиста, тихо не глотается.
func WeightOf(action Action) (int, error) {
	e, ok := catalog[action]
	if !ok {
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownAction, action)
	}
	return e.Weight, nil
}

// DescriptionOf возвращает описание действия (пустая строка для неизвестного).
func DescriptionOf(action Action) string {
	return catalog[action].Description
}

// IsCataloged сообщает, есть ли вид действия в каталоге.
func IsCataloged(action Action) bool {
	_, ok := catalog[action]
	return ok
}

// IsVoteAction сообщает, является ли действие отданным голосом.
// Для голосов действует отдельное короткое окно лимита (см. ratelimit.go).
func IsVoteAction(action Action) bool {
	return action == ActionUpvote || action == ActionDownvote
}

// VoteActions возвращает виды действий, считающиеся голосами.
func VoteActions() []Action {
	return []Action{ActionUpvote, ActionDownvote}
}
