package account

import (
	"time"

	"github.com/google/uuid"
)

// Roles accepted at signup.
var Roles = []string{"doctor", "nurse", "health-worker", "pharmacist", "admin"}

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	HealthCenter string    `json:"healthCenter"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is what login stores as the current user.
type Profile struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
	HealthCenter string `json:"healthCenter,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		HealthCenter: u.HealthCenter,
	}
}

type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
	HealthCenter    string `json:"healthCenter"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
