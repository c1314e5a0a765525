package domain

// UserStatus represents lifecycle states for an end-user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for end-users who report tickets.
type User struct {
	Base
	Name         string
	Email        string
	PasswordHash string
	Status       UserStatus
}
