package domain

import "time"

type ID string

// User is the persistent account record. PasswordHash and RefreshToken never
// leave the store boundary; callers expose Profile instead.
type User struct {
	ID           ID
	Name         string
	Email        string
	PasswordHash string
	RefreshToken string
	CreatedAt    time.Time
}

// Profile is the public projection of a user.
type Profile struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
