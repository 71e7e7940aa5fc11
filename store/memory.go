package store

import (
	"context"
	"sync"
	"time"

	"verigate/auth-api/model"
)

// MemoryStore is an in-memory UserStore used by tests. It honors the
// same partial-update keys and the same atomicity guarantees as the
// gorm implementation.
type MemoryStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

var _ UserStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		users:  make(map[uint]*model.User),
	}
}

func (s *MemoryStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findBy(func(u *model.User) bool {
		return u.Email == email
	})
}

func (s *MemoryStore) FindByToken(ctx context.Context, token string) (*model.User, error) {
	return s.findBy(func(u *model.User) bool {
		return u.Token != nil && *u.Token == token
	})
}

func (s *MemoryStore) FindByResetLoginToken(ctx context.Context, email, token string) (*model.User, error) {
	return s.findBy(func(u *model.User) bool {
		return u.Email == email && u.ResetAttemptsToken != nil && *u.ResetAttemptsToken == token
	})
}

func (s *MemoryStore) FindByResetVerificationToken(ctx context.Context, email, token string) (*model.User, error) {
	return s.findBy(func(u *model.User) bool {
		return u.Email == email &&
			u.ResetVerificationAttemptsToken != nil &&
			*u.ResetVerificationAttemptsToken == token
	})
}

func (s *MemoryStore) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}

	u.ID = s.nextID
	s.nextID++
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = copyUser(u)

	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}

	for col, val := range fields {
		applyField(u, col, val)
	}
	u.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)

	return nil
}

func (s *MemoryStore) IncrementAttempts(ctx context.Context, id uint, kind AttemptKind, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return 0, ErrNotFound
	}

	stamp := at
	if kind == VerificationAttempts {
		u.VerificationAttempts++
		u.LastVerificationAttemptAt = &stamp
		return u.VerificationAttempts, nil
	}

	u.LoginAttempts++
	u.LastLoginAttemptAt = &stamp
	return u.LoginAttempts, nil
}

func (s *MemoryStore) ListExpiredSessions(ctx context.Context, now time.Time) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.User
	for _, u := range s.users {
		if u.Token != nil && u.TokenExpiresAt != nil && u.TokenExpiresAt.Before(now) {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (s *MemoryStore) findBy(match func(*model.User) bool) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func applyField(u *model.User, col string, val any) {
	switch col {
	case ColName:
		u.Name = val.(string)
	case ColPasswordHash:
		u.PasswordHash = val.(string)
	case ColBirthday:
		u.Birthday = val.(time.Time)
	case ColEmailVerificationCode:
		u.EmailVerificationCode = toStringPtr(val)
	case ColVerificationCodeExpiresAt:
		u.VerificationCodeExpiresAt = toTimePtr(val)
	case ColEmailVerifiedAt:
		u.EmailVerifiedAt = toTimePtr(val)
	case ColVerificationAttempts:
		u.VerificationAttempts = val.(int)
	case ColLastVerificationAttemptAt:
		u.LastVerificationAttemptAt = toTimePtr(val)
	case ColResetVerificationAttemptsToken:
		u.ResetVerificationAttemptsToken = toStringPtr(val)
	case ColResetVerificationAttemptsTokenExpiresAt:
		u.ResetVerificationAttemptsTokenExpiresAt = toTimePtr(val)
	case ColToken:
		u.Token = toStringPtr(val)
	case ColTokenExpiresAt:
		u.TokenExpiresAt = toTimePtr(val)
	case ColTokenLastUsedAt:
		u.TokenLastUsedAt = toTimePtr(val)
	case ColLoginAttempts:
		u.LoginAttempts = val.(int)
	case ColLastLoginAttemptAt:
		u.LastLoginAttemptAt = toTimePtr(val)
	case ColResetAttemptsToken:
		u.ResetAttemptsToken = toStringPtr(val)
	case ColResetAttemptsTokenExpiresAt:
		u.ResetAttemptsTokenExpiresAt = toTimePtr(val)
	}
}

func toStringPtr(val any) *string {
	if val == nil {
		return nil
	}
	s := val.(string)
	return &s
}

func toTimePtr(val any) *time.Time {
	if val == nil {
		return nil
	}
	t := val.(time.Time)
	return &t
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}
