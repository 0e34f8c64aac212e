package models

import "time"

// User is a registered wallet owner, identified by email.
type User struct {
	Email        string
	Username     string
	Salt         []byte
	PasswordHash []byte
	CreatedAt    time.Time
}
