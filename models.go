package auth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// User is the authenticated account as reported by the remote authority.
// A user exists if and only if the session holds a currently valid access
// token; it is cleared whenever the session is cleared.
type User struct {
	ID         uuid.UUID  `json:"id,omitempty"`
	Email      string     `json:"email,omitempty"`
	Name       string     `json:"name,omitempty"`
	Role       Role       `json:"role,omitempty"`
	Department string     `json:"department,omitempty"`
	JobTitle   string     `json:"job_title,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	IsActive   bool       `json:"is_active,omitempty"`
	IsOnline   bool       `json:"is_online,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Credentials is the login payload. Input only, never persisted.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the payload before any network call is made.
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

// RegisterProfile is the registration payload sent to the remote authority.
type RegisterProfile struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department,omitempty"`
	JobTitle   string `json:"job_title,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Validate checks the payload before any network call is made. Phone is
// optional but must parse as a dialable number when present.
func (r RegisterProfile) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(&r.Department, validation.Length(0, 100)),
		validation.Field(&r.JobTitle, validation.Length(0, 100)),
		validation.Field(&r.Phone, validation.By(validPhoneNumber)),
	)
}

func validPhoneNumber(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}

	num, err := phonenumbers.Parse(raw, "US")
	if err != nil {
		return fmt.Errorf("must be a valid phone number: %w", err)
	}

	if !phonenumbers.IsValidNumber(num) {
		return fmt.Errorf("must be a valid phone number")
	}

	return nil
}

// TokenPair is the opaque bearer credential pair issued by the remote
// authority. Exclusively owned by the TokenStore.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	IssuedAt     time.Time `json:"issued_at,omitempty"`
}

// Empty reports whether the pair holds no tokens.
func (p TokenPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// AuthResult is the shape returned by a successful login or register
// exchange. By the time a caller sees it the token pair is already durable.
type AuthResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
