// Package trust реализует движок репутации (trust score):
// каталог действий, уровни доверия, журнал начислений и операции
// над счётом пользователя.
// models.go описывает структуры данных движка.
package trust

import "time"

// Metadata — произвольный контекст записи журнала
// (id листинга, id администратора, причина и т.п.).
// Хранится в колонке JSONB как есть.
type Metadata map[string]any

// User — проекция записи пользователя, с которой работает движок.
// Остальные поля пользователя принадлежат платформе и движку не видны.
type User struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	TrustScore   int       `db:"trust_score"`
	LastActiveAt time.Time `db:"last_active_at"`
	CreatedAt    time.Time `db:"created_at"`
}

// ActionLogEntry — запись журнала trust-действий.
// Записи неизменяемы: отмена действия добавляет новую запись
// с отрицательным весом, а не правит историю.
type ActionLogEntry struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	Action    Action    `db:"action"`
	Weight    int       `db:"weight"` // Фактически применённая дельта (со знаком)
	Metadata  Metadata  `db:"metadata"`
	CreatedAt time.Time `db:"created_at"`
}

// LedgerView — запись журнала вместе с именем пользователя
// (для статистики и аудита).
type LedgerView struct {
	ActionLogEntry
	UserName string `db:"user_name"`
}
