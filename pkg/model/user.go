package model

import "time"

const (
	SquadLunar = "lunar"
	ClubDekker = "dekker"
)

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Squad        *string   `json:"squad" bson:"squad"`
	Club         *string   `json:"club" bson:"club"`
	IsAdmin      bool      `json:"is_admin" bson:"is_admin"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type Registration struct {
	Username string  `json:"username" validate:"required,min=3,max=150,username"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Squad    *string `json:"squad,omitempty" validate:"omitempty,oneof=lunar"`
	Club     *string `json:"club,omitempty" validate:"omitempty,oneof=dekker"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is a login. ID is the SHA-256 of the bearer token, the token itself
// is never stored.
type Session struct {
	ID        string    `json:"-" bson:"_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
