package domain

import "time"

type User struct {
	ID          string    `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Preferences []string  `json:"preferences,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
