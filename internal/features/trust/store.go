// Package trust — store.go определяет интерфейс хранилища движка.
// Движок не знает, стоит ли за ним pgx-пул или открытая кем-то выше
// транзакция: граница транзакции абстрагирована в RunInTx, а все
// мутации идут только через TxStore внутри неё.
package trust

import (
	"context"
	"time"
)

// TxStore — операции, доступные ТОЛЬКО внутри транзакции.
// Чтение счёта блокирует строку пользователя, поэтому два
// конкурентных действия над одним пользователем сериализуются.
type TxStore interface {
	// GetUserForUpdate читает пользователя с блокировкой строки.
	// Возвращает common.ErrUserNotFound, если пользователя нет.
	GetUserForUpdate(ctx context.Context, userID string) (*User, error)
	// UpdateScore записывает новый счёт; touchActivity дополнительно
	// обновляет last_active_at = NOW() (автоматические действия — да,
	// админ-корректировки — нет).
	UpdateScore(ctx context.Context, userID string, newScore int, touchActivity bool) error
	// AppendEntry добавляет запись журнала.
	AppendEntry(ctx context.Context, userID string, action Action, weight int, meta Metadata) error
}

// Store — полный доступ движка к хранилищу.
type Store interface {
	// RunInTx выполняет fn в одной атомарной транзакции.
	// Ошибка fn откатывает все изменения; частичных записей не бывает.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error

	// GetUser читает пользователя без блокировки.
	GetUser(ctx context.Context, userID string) (*User, error)
	// AllUserIDs возвращает id всех известных пользователей (для аудита).
	AllUserIDs(ctx context.Context) ([]string, error)
	// EligibleUserIDs возвращает пользователей, созданных не позже
	// createdBefore И активных не раньше activeAfter.
	EligibleUserIDs(ctx context.Context, createdBefore, activeAfter time.Time) ([]string, error)

	// CountEntriesSince считает записи журнала пользователя с момента since.
	CountEntriesSince(ctx context.Context, userID string, since time.Time) (int, error)
	// CountEntriesOfActionsSince — то же, но только для перечисленных видов.
	CountEntriesOfActionsSince(ctx context.Context, userID string, actions []Action, since time.Time) (int, error)
	// HasEntrySince проверяет, есть ли запись данного вида с момента since.
	HasEntrySince(ctx context.Context, userID string, action Action, since time.Time) (bool, error)

	// TotalEntries — общее число записей журнала.
	TotalEntries(ctx context.Context) (int64, error)
	// CountsByAction — количество и сумма весов по видам действий.
	// Пустой userID означает «по всем пользователям».
	CountsByAction(ctx context.Context, userID string) ([]ActionStat, error)
	// RecentEntries — последние limit записей (с именем пользователя),
	// опционально по одному пользователю.
	RecentEntries(ctx context.Context, userID string, limit int) ([]*LedgerView, error)
	// EntriesInOrder — все записи пользователя в порядке created_at
	// (для проверки согласованности журнала, не для горячего пути).
	EntriesInOrder(ctx context.Context, userID string) ([]*ActionLogEntry, error)
}

// ActionStat — агрегат журнала по одному виду действия.
type ActionStat struct {
	Action    Action `json:"action"`
	Count     int64  `json:"count"`
	WeightSum int64  `json:"weight_sum"`
}
