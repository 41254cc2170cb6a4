// Package repositorytest provides an in-memory AccountRepository for tests
// of the packages built on top of the store.
package repositorytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"magicwords/core/apperr"
	"magicwords/model"
	"magicwords/repository"
)

// MemoryAccounts mirrors the GORM repository's semantics over a map.
type MemoryAccounts struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]model.Account
}

var _ repository.AccountRepository = (*MemoryAccounts)(nil)

func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{nextID: 1, rows: map[int64]model.Account{}}
}

// conflict reports the first unique column a clashes on, ignoring row a.ID.
func (m *MemoryAccounts) conflict(a *model.Account) string {
	for id, row := range m.rows {
		if id == a.ID {
			continue
		}
		if row.Email == a.Email {
			return "email"
		}
		if row.PhoneNumber == a.PhoneNumber {
			return "phone_number"
		}
	}
	return ""
}

func (m *MemoryAccounts) Create(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account.ID = 0
	if field := m.conflict(account); field != "" {
		return fmt.Errorf("create account: %w", &apperr.DuplicateKeyError{Field: field})
	}
	account.ID = m.nextID
	m.nextID++
	now := time.Now()
	account.CreatedAt, account.UpdatedAt = now, now
	m.rows[account.ID] = clone(*account)
	return nil
}

func (m *MemoryAccounts) GetByID(_ context.Context, id int64) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("get account %d: %w", id, apperr.ErrNotFound)
	}
	a := clone(row)
	return &a, nil
}

func (m *MemoryAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.rows {
		if row.Email == email {
			a := clone(row)
			return &a, nil
		}
	}
	return nil, fmt.Errorf("get account by email: %w", apperr.ErrNotFound)
}

func (m *MemoryAccounts) List(_ context.Context, opts repository.ListOptions) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(opts.Search)
	out := []model.Account{}
	for _, row := range m.rows {
		if opts.ExcludeSuperusers && row.IsSuperuser {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(row.Username), needle) &&
			!strings.Contains(strings.ToLower(row.Email), needle) &&
			!strings.Contains(strings.ToLower(row.PhoneNumber), needle) {
			continue
		}
		out = append(out, clone(row))
	}

	sort.Slice(out, func(i, j int) bool {
		if opts.OrderBy == repository.OrderByUsername && out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryAccounts) Update(_ context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.rows[account.ID]
	if !ok {
		// GORM's Updates on a missing row affects nothing and reports no error.
		return nil
	}
	if field := m.conflict(account); field != "" {
		return fmt.Errorf("update account %d: %w", account.ID, &apperr.DuplicateKeyError{Field: field})
	}
	account.CreatedAt = prev.CreatedAt
	account.UpdatedAt = time.Now()
	m.rows[account.ID] = clone(*account)
	return nil
}

func (m *MemoryAccounts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return fmt.Errorf("delete account %d: %w", id, apperr.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

// Len returns the number of stored accounts.
func (m *MemoryAccounts) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// clone detaches pointer fields so callers cannot mutate stored rows.
func clone(a model.Account) model.Account {
	if a.Image != nil {
		img := *a.Image
		a.Image = &img
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		a.LastLogin = &t
	}
	return a
}
