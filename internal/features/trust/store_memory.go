// Package trust — store_memory.go реализует Store в памяти.
// Используется юнит-тестами: семантика повторяет PostgresStore,
// включая откат изменений при ошибке внутри RunInTx.
package trust

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"emuready.app/trust-engine/internal/common"
)

var (
	_ Store   = (*MemoryStore)(nil)
	_ Store   = (*PostgresStore)(nil)
	_ TxStore = (*memoryTxStore)(nil)
)

// MemoryStore хранит пользователей и журнал в памяти под одним мьютексом.
// Мьютекс внутри RunInTx держится на всю «транзакцию», поэтому
// конкурентные мутации сериализуются так же, как FOR UPDATE в Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*User
	entries []*ActionLogEntry
	nextID  int64
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*User)}
}

// PutUser добавляет (или замещает) пользователя. Хелпер для тестов.
func (s *MemoryStore) PutUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// SeedEntry добавляет запись журнала с заданным created_at, не трогая счёт.
// Хелпер для тестов окон лимитов и идемпотентности бонуса.
func (s *MemoryStore) SeedEntry(userID string, action Action, weight int, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(userID, action, weight, nil, createdAt)
}

func (s *MemoryStore) appendLocked(userID string, action Action, weight int, meta Metadata, createdAt time.Time) {
	s.nextID++
	s.entries = append(s.entries, &ActionLogEntry{
		ID:        s.nextID,
		UserID:    userID,
		Action:    action,
		Weight:    weight,
		Metadata:  meta,
		CreatedAt: createdAt,
	})
}

// RunInTx выполняет fn атомарно: при ошибке изменения откатываются.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Снимок для отката: копии структур пользователей и длина журнала
	snapshot := make(map[string]*User, len(s.users))
	for id, u := range s.users {
		cp := *u
		snapshot[id] = &cp
	}
	mark := len(s.entries)

	if err := fn(ctx, &memoryTxStore{s: s}); err != nil {
		s.users = snapshot
		s.entries = s.entries[:mark]
		return err
	}
	return nil
}

// GetUser возвращает копию пользователя.
func (s *MemoryStore) GetUser(ctx context.Context, userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserLocked(userID)
}

func (s *MemoryStore) getUserLocked(userID string) (*User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// AllUserIDs возвращает id всех пользователей, упорядоченные по created_at.
func (s *MemoryStore) AllUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

// EligibleUserIDs повторяет выборку кандидатов на бонус.
func (s *MemoryStore) EligibleUserIDs(ctx context.Context, createdBefore, activeAfter time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var eligible []*User
	for _, u := range s.users {
		if !u.CreatedAt.After(createdBefore) && !u.LastActiveAt.Before(activeAfter) {
			eligible = append(eligible, u)
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].CreatedAt.Before(eligible[j].CreatedAt) })
	ids := make([]string, len(eligible))
	for i, u := range eligible {
		ids[i] = u.ID
	}
	return ids, nil
}

// CountEntriesSince считает записи пользователя с момента since.
func (s *MemoryStore) CountEntriesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.entries {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// CountEntriesOfActionsSince считает записи перечисленных видов.
func (s *MemoryStore) CountEntriesOfActionsSince(ctx context.Context, userID string, actions []Action, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kinds := make(map[Action]bool, len(actions))
	for _, a := range actions {
		kinds[a] = true
	}
	count := 0
	for _, e := range s.entries {
		if e.UserID == userID && kinds[e.Action] && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// HasEntrySince проверяет существование записи данного вида.
func (s *MemoryStore) HasEntrySince(ctx context.Context, userID string, action Action, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.UserID == userID && e.Action == action && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

// TotalEntries возвращает общее число записей журнала.
func (s *MemoryStore) TotalEntries(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// CountsByAction возвращает агрегаты по видам действий.
func (s *MemoryStore) CountsByAction(ctx context.Context, userID string) ([]ActionStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agg := make(map[Action]*ActionStat)
	for _, e := range s.entries {
		if userID != "" && e.UserID != userID {
			continue
		}
		st, ok := agg[e.Action]
		if !ok {
			st = &ActionStat{Action: e.Action}
			agg[e.Action] = st
		}
		st.Count++
		st.WeightSum += int64(e.Weight)
	}
	stats := make([]ActionStat, 0, len(agg))
	for _, st := range agg {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		return strings.Compare(string(stats[i].Action), string(stats[j].Action)) < 0
	})
	return stats, nil
}

// RecentEntries возвращает последние limit записей.
func (s *MemoryStore) RecentEntries(ctx context.Context, userID string, limit int) ([]*LedgerView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var views []*LedgerView
	for i := len(s.entries) - 1; i >= 0 && len(views) < limit; i-- {
		e := s.entries[i]
		if userID != "" && e.UserID != userID {
			continue
		}
		name := ""
		if u, ok := s.users[e.UserID]; ok {
			name = u.Name
		}
		views = append(views, &LedgerView{ActionLogEntry: *e, UserName: name})
	}
	return views, nil
}

// EntriesInOrder возвращает записи пользователя в порядке created_at.
func (s *MemoryStore) EntriesInOrder(ctx context.Context, userID string) ([]*ActionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var entries []*ActionLogEntry
	for _, e := range s.entries {
		if e.UserID == userID {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

// memoryTxStore — мутации под уже взятым мьютексом RunInTx.
type memoryTxStore struct {
	s *MemoryStore
}

func (t *memoryTxStore) GetUserForUpdate(ctx context.Context, userID string) (*User, error) {
	return t.s.getUserLocked(userID)
}

func (t *memoryTxStore) UpdateScore(ctx context.Context, userID string, newScore int, touchActivity bool) error {
	u, ok := t.s.users[userID]
	if !ok {
		return common.ErrUserNotFound
	}
	u.TrustScore = newScore
	if touchActivity {
		u.LastActiveAt = time.Now().UTC()
	}
	return nil
}

func (t *memoryTxStore) AppendEntry(ctx context.Context, userID string, action Action, weight int, meta Metadata) error {
	t.s.appendLocked(userID, action, weight, meta, time.Now().UTC())
	return nil
}
