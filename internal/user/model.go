package user

import "github.com/gofrs/uuid"

// User is the slice of a customer account the order engine needs.
type User struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Email string    `json:"email" db:"email"`
	Phone string    `json:"phone,omitempty" db:"phone"`
}
