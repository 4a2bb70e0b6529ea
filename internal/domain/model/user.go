package model

import (
	"time"
)

const (
	RoleStudent = "student"
	RoleMentor  = "mentor"
	RoleAdmin   = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	IsPlaced       bool      `json:"isPlaced"`
	Reputation     int       `json:"reputation"`
	IsVerified     bool      `json:"isVerified"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func (u *User) IsMentor() bool { return u != nil && u.Role == RoleMentor }

// CanModify reports whether u owns the entity or is an admin.
func (u *User) CanModify(ownerID string) bool {
	return u != nil && (u.ID == ownerID || u.IsAdmin())
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	}
	return false
}
