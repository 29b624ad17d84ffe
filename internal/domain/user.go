// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxUsernameLen caps a display name, in runes, when no other limit is set.
const MaxUsernameLen = 64

var (
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// UserID is the identity of a single live connection. It is never reused:
// a reconnecting client gets a new one.
type UserID string

// NewUserID mints a fresh connection identity.
func NewUserID() UserID {
	return UserID(uuid.NewString())
}

type User struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

// NewUser builds a user from a client supplied display name. The name is
// kept byte for byte; only blank names and names over max runes are
// rejected. A max of zero falls back to MaxUsernameLen.
func NewUser(id UserID, username string, max int) (*User, error) {
	if max <= 0 {
		max = MaxUsernameLen
	}
	if err := checkUsername(username, max); err != nil {
		return nil, err
	}
	return &User{ID: id, Username: username}, nil
}

func checkUsername(username string, max int) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameEmpty
	}
	if utf8.RuneCountInString(username) > max {
		return ErrUsernameTooLong
	}
	return nil
}
