// Package trust — store_postgres.go реализует Store поверх PostgreSQL.
// Все мутации счёта выполняются в одной транзакции с блокировкой
// строки пользователя (SELECT ... FOR UPDATE): либо обновится и счёт,
// и журнал, либо ничего.
package trust

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"emuready.app/trust-engine/internal/common"
)

// DB — общий знаменатель *pgxpool.Pool и pgx.Tx.
// Благодаря этому один и тот же store работает и самостоятельно,
// и внутри уже открытой вызывающим кодом транзакции: pgx.Tx.Begin
// открывает вложенный savepoint.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore работает с таблицами users и trust_action_logs.
type PostgresStore struct {
	db DB
}

// NewPostgresStore создаёт хранилище движка.
// В db передаётся пул соединений либо открытая транзакция.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunInTx выполняет fn в транзакции БД.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	if err := fn(ctx, &postgresTxStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetUser возвращает пользователя без блокировки строки.
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*User, error) {
	return scanUser(s.db.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), trust_score, last_active_at, created_at
		FROM users WHERE id = $1
	`, userID))
}

// AllUserIDs возвращает id всех пользователей.
func (s *PostgresStore) AllUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// EligibleUserIDs возвращает устоявшиеся И активные аккаунты:
// созданные не позже createdBefore и активные не раньше activeAfter.
func (s *PostgresStore) EligibleUserIDs(ctx context.Context, createdBefore, activeAfter time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id FROM users
		WHERE created_at <= $1 AND last_active_at >= $2
		ORDER BY created_at
	`, createdBefore, activeAfter)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки кандидатов на бонус: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// CountEntriesSince считает записи журнала пользователя с момента since.
func (s *PostgresStore) CountEntriesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM trust_action_logs
		WHERE user_id = $1 AND created_at >= $2
	`, userID, since).Scan(&count)
	return count, err
}

// CountEntriesOfActionsSince считает записи перечисленных видов с момента since.
func (s *PostgresStore) CountEntriesOfActionsSince(ctx context.Context, userID string, actions []Action, since time.Time) (int, error) {
	kinds := make([]string, len(actions))
	for i, a := range actions {
		kinds[i] = string(a)
	}
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM trust_action_logs
		WHERE user_id = $1 AND action = ANY($2) AND created_at >= $3
	`, userID, kinds, since).Scan(&count)
	return count, err
}

// HasEntrySince проверяет существование записи данного вида с момента since.
func (s *PostgresStore) HasEntrySince(ctx context.Context, userID string, action Action, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM trust_action_logs
			WHERE user_id = $1 AND action = $2 AND created_at >= $3
		)
	`, userID, string(action), since).Scan(&exists)
	return exists, err
}

// TotalEntries возвращает общее число записей журнала.
func (s *PostgresStore) TotalEntries(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trust_action_logs`).Scan(&total)
	return total, err
}

// CountsByAction возвращает количество и сумму весов по видам действий.
func (s *PostgresStore) CountsByAction(ctx context.Context, userID string) ([]ActionStat, error) {
	query := `
		SELECT action, COUNT(*), COALESCE(SUM(weight), 0)
		FROM trust_action_logs
	`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` GROUP BY action ORDER BY action`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка агрегации журнала: %w", err)
	}
	defer rows.Close()

	var stats []ActionStat
	for rows.Next() {
		var st ActionStat
		if err := rows.Scan(&st.Action, &st.Count, &st.WeightSum); err != nil {
			return nil, fmt.Errorf("ошибка сканирования агрегата: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// RecentEntries возвращает последние limit записей журнала с именем
// пользователя; непустой userID ограничивает выборку одним пользователем.
func (s *PostgresStore) RecentEntries(ctx context.Context, userID string, limit int) ([]*LedgerView, error) {
	query := `
		SELECT l.id, l.user_id, l.action, l.weight, COALESCE(l.metadata, '{}'::jsonb),
		       l.created_at, COALESCE(u.name, '')
		FROM trust_action_logs l
		LEFT JOIN users u ON u.id = l.user_id
	`
	args := []any{}
	if userID != "" {
		query += ` WHERE l.user_id = $1`
		args = append(args, userID)
	}
	query += fmt.Sprintf(` ORDER BY l.created_at DESC, l.id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей журнала: %w", err)
	}
	defer rows.Close()

	var entries []*LedgerView
	for rows.Next() {
		var v LedgerView
		var raw []byte
		if err := rows.Scan(&v.ID, &v.UserID, &v.Action, &v.Weight, &raw, &v.CreatedAt, &v.UserName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		if err := json.Unmarshal(raw, &v.Metadata); err != nil {
			return nil, fmt.Errorf("ошибка декодирования metadata: %w", err)
		}
		entries = append(entries, &v)
	}
	return entries, rows.Err()
}

// EntriesInOrder возвращает все записи пользователя в порядке created_at.
func (s *PostgresStore) EntriesInOrder(ctx context.Context, userID string) ([]*ActionLogEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, action, weight, COALESCE(metadata, '{}'::jsonb), created_at
		FROM trust_action_logs
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	defer rows.Close()

	var entries []*ActionLogEntry
	for rows.Next() {
		var e ActionLogEntry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Weight, &raw, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Metadata); err != nil {
			return nil, fmt.Errorf("ошибка декодирования metadata: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// postgresTxStore — мутации внутри открытой транзакции.
type postgresTxStore struct {
	tx pgx.Tx
}

// GetUserForUpdate читает пользователя с блокировкой строки (FOR UPDATE).
func (t *postgresTxStore) GetUserForUpdate(ctx context.Context, userID string) (*User, error) {
	return scanUser(t.tx.QueryRow(ctx, `
		SELECT id, COALESCE(name, ''), trust_score, last_active_at, created_at
		FROM users WHERE id = $1
		FOR UPDATE
	`, userID))
}

// UpdateScore записывает новый счёт пользователя.
func (t *postgresTxStore) UpdateScore(ctx context.Context, userID string, newScore int, touchActivity bool) error {
	query := `UPDATE users SET trust_score = $2 WHERE id = $1`
	if touchActivity {
		query = `UPDATE users SET trust_score = $2, last_active_at = NOW() WHERE id = $1`
	}
	tag, err := t.tx.Exec(ctx, query, userID, newScore)
	if err != nil {
		return fmt.Errorf("ошибка записи счёта: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// AppendEntry добавляет запись журнала.
func (t *postgresTxStore) AppendEntry(ctx context.Context, userID string, action Action, weight int, meta Metadata) error {
	if meta == nil {
		meta = Metadata{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка кодирования metadata: %w", err)
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO trust_action_logs (user_id, action, weight, metadata)
		VALUES ($1, $2, $3, $4::jsonb)
	`, userID, string(action), weight, raw)
	if err != nil {
		return fmt.Errorf("ошибка записи журнала: %w", err)
	}
	return nil
}

// scanUser разбирает строку пользователя; ErrNoRows → ErrUserNotFound.
func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.TrustScore, &u.LastActiveAt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя: %w", err)
	}
	return &u, nil
}

// scanIDs собирает колонку id в срез строк.
func scanIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
