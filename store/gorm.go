package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"verigate/auth-api/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements UserStore on top of a gorm connection.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	return wrapFind(&u, err)
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return wrapFind(&u, err)
}

func (s *GormStore) FindByToken(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&u).Error
	return wrapFind(&u, err)
}

func (s *GormStore) FindByResetLoginToken(ctx context.Context, email, token string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND reset_attempts_token = ?", email, token).
		First(&u).Error
	return wrapFind(&u, err)
}

func (s *GormStore) FindByResetVerificationToken(ctx context.Context, email, token string) (*model.User, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Where("email = ? AND reset_verification_attempts_token = ?", email, token).
		First(&u).Error
	return wrapFind(&u, err)
}

func (s *GormStore) Create(ctx context.Context, u *model.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementAttempts runs inside a transaction with a row lock so two
// concurrent failed attempts can't both read the same counter value.
func (s *GormStore) IncrementAttempts(ctx context.Context, id uint, kind AttemptKind, at time.Time) (int, error) {
	counterCol, stampCol := attemptColumns(kind)

	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u model.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&u).Error; err != nil {
			return err
		}

		switch kind {
		case VerificationAttempts:
			count = u.VerificationAttempts + 1
		default:
			count = u.LoginAttempts + 1
		}

		return tx.Model(&model.User{}).
			Where("id = ?", id).
			Updates(map[string]any{
				counterCol: count,
				stampCol:   at,
			}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment %s attempts for user %d: %w", kind, id, err)
	}

	return count, nil
}

func (s *GormStore) ListExpiredSessions(ctx context.Context, now time.Time) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).
		Where("token IS NOT NULL AND token_expires_at < ?", now).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	return users, nil
}

func attemptColumns(kind AttemptKind) (counter, stamp string) {
	if kind == VerificationAttempts {
		return ColVerificationAttempts, ColLastVerificationAttemptAt
	}
	return ColLoginAttempts, ColLastLoginAttemptAt
}

func wrapFind(u *model.User, err error) (*model.User, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// isUniqueViolation covers drivers that don't translate constraint
// errors into gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
