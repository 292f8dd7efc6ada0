package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified caller resolved from a bearer credential.
type Identity struct {
	SubjectID string
	Email     string
}

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SubjectID string
	Email     string
	JTI       string
}

// AccessTokenClaims represents the typed JWT accepted by the API.
// The subject id is carried in `id`; `sub` is accepted when `id` is absent.
type AccessTokenClaims struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) identity() Identity {
	subject := c.ID
	if subject == "" {
		subject = c.Subject
	}
	return Identity{SubjectID: subject, Email: c.Email}
}
