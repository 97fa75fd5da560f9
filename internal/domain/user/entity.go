package user

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash *string
	DisplayName  *string
	FirstName    *string
	LastName     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
