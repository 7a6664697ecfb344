package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

var (
	_ TokenVerifier = (*FirebaseVerifier)(nil)
	_ TokenVerifier = (*JWTVerifier)(nil)
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*types.Identity, error)
}

// IDTokenVerifier is the part of the Firebase Auth client used here.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier validates Firebase ID tokens issued to the web client.
type FirebaseVerifier struct {
	client IDTokenVerifier
}

func NewFirebaseVerifier(client IDTokenVerifier) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*types.Identity, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	identity := &types.Identity{
		UID:        token.UID,
		ProviderID: token.Firebase.SignInProvider,
	}
	if email, ok := token.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		identity.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		identity.PhotoURL = picture
	}
	if identity.ProviderID == "" {
		identity.ProviderID = "password"
	}
	return identity, nil
}

// JWTVerifier validates HS256 tokens for deployments without Firebase.
type JWTVerifier struct {
	cfg config.JWTConfig
	now func() time.Time
}

func NewJWTVerifier(cfg config.JWTConfig) (*JWTVerifier, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("jwt secret key is not configured")
	}
	return &JWTVerifier{cfg: cfg, now: time.Now}, nil
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*types.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(v.cfg.SecretKey), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if v.cfg.Audience != "" && !slices.Contains(claims.Audience, v.cfg.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	provider := claims.Provider
	if provider == "" {
		provider = "password"
	}
	return &types.Identity{
		UID:         claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.Picture,
		ProviderID:  provider,
	}, nil
}

// Issue signs a token for identity. It backs the admin CLI and tests.
func (v *JWTVerifier) Issue(identity types.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := types.Claims{
		UserID:      identity.UID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		Picture:     identity.PhotoURL,
		Provider:    identity.ProviderID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			Issuer:    v.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(v.cfg.SecretKey))
}
