// Package model contains the database models used across the application
package model

import "time"

// User is the single table behind the whole auth flow. Verification,
// session and attempt state all live on the user row, so every state
// transition is one read plus one conditional write.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Birthday     time.Time `json:"birthday"`

	// Verification state. EmailVerificationCode is present only while the
	// account is unverified. EmailVerifiedAt is set once, never cleared.
	EmailVerificationCode     *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	EmailVerifiedAt           *time.Time `json:"email_verified_at"`

	VerificationAttempts      int        `gorm:"default:0" json:"-"`
	LastVerificationAttemptAt *time.Time `json:"-"`

	ResetVerificationAttemptsToken          *string    `json:"-"`
	ResetVerificationAttemptsTokenExpiresAt *time.Time `json:"-"`

	// Session state. A present Token always has a TokenExpiresAt.
	Token           *string    `gorm:"index" json:"-"`
	TokenExpiresAt  *time.Time `json:"-"`
	TokenLastUsedAt *time.Time `json:"-"`

	LoginAttempts      int        `gorm:"default:0" json:"-"`
	LastLoginAttemptAt *time.Time `json:"-"`

	ResetAttemptsToken          *string    `json:"-"`
	ResetAttemptsTokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Verified reports whether email ownership has been confirmed.
func (u *User) Verified() bool {
	return u.EmailVerifiedAt != nil
}
