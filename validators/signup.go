package validators

import (
	"errors"
	"time"
)

var (
	ErrNameEmpty       = errors.New("no name provided")
	ErrNameTooLong     = errors.New("name is too long")
	ErrBirthdayEmpty   = errors.New("no birthday provided")
	ErrBirthdayInvalid = errors.New("birthday must be a date in YYYY-MM-DD format")
)

func NameValidator(n string) error {
	if n == "" {
		return ErrNameEmpty
	}

	if len(n) > 255 {
		return ErrNameTooLong
	}

	return nil
}

// BirthdayValidator parses a YYYY-MM-DD date string.
func BirthdayValidator(b string) (time.Time, error) {
	if b == "" {
		return time.Time{}, ErrBirthdayEmpty
	}

	t, err := time.Parse("2006-01-02", b)
	if err != nil {
		return time.Time{}, ErrBirthdayInvalid
	}

	return t, nil
}
