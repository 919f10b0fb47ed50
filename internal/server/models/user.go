// Package models holds the persisted server-side entities.
package models

// User is a registered credential. PasswordHash is a self-describing hash
// string and must never be logged or returned to clients.
type User struct {
	ID           string
	Email        string
	PasswordHash string
}
