package models

import (
	"github.com/google/uuid"
)

// Course is the catalog view of a course owned by the course service.
type Course struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

// Recipient is an addressable member of a course audience.
type Recipient struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}
