package types

import "github.com/golang-jwt/jwt/v5"

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	ProviderID  string `json:"providerId,omitempty"`
}

// Claims are the claims carried by self-issued access tokens when the
// deployment does not use Firebase Auth.
type Claims struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"name,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Provider    string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}
