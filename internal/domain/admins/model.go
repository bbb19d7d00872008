package admins

import (
	"errors"
	"time"
)

const RoleAdmin = "admin"

var (
	ErrNotFound           = errors.New("admins: not found")
	ErrInvalidCredentials = errors.New("admins: invalid credentials")
)

type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
