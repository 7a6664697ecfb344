package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-tourease-suggestions/config"
	"github.com/FACorreiaa/go-tourease-suggestions/internal/types"
)

type MockIDTokenVerifier struct {
	mock.Mock
}

func (m *MockIDTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fbauth.Token), args.Error(1)
}

func TestFirebaseVerifier_Verify(t *testing.T) {
	ctx := context.Background()

	t.Run("maps claims to identity", func(t *testing.T) {
		client := new(MockIDTokenVerifier)
		verifier := NewFirebaseVerifier(client)
		client.On("VerifyIDToken", ctx, "good").Return(&fbauth.Token{
			UID:      "uid-1",
			Firebase: fbauth.FirebaseInfo{SignInProvider: "google.com"},
			Claims: map[string]interface{}{
				"email":   "ayu@example.com",
				"name":    "Ayu",
				"picture": "https://example.com/ayu.png",
			},
		}, nil).Once()

		identity, err := verifier.Verify(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, types.Identity{
			UID:         "uid-1",
			Email:       "ayu@example.com",
			DisplayName: "Ayu",
			PhotoURL:    "https://example.com/ayu.png",
			ProviderID:  "google.com",
		}, *identity)
		client.AssertExpectations(t)
	})

	t.Run("rejected token", func(t *testing.T) {
		client := new(MockIDTokenVerifier)
		verifier := NewFirebaseVerifier(client)
		client.On("VerifyIDToken", ctx, "bad").Return(nil, errors.New("expired")).Once()

		_, err := verifier.Verify(ctx, "bad")
		assert.ErrorIs(t, err, ErrInvalidToken)
		client.AssertExpectations(t)
	})
}

func TestJWTVerifier(t *testing.T) {
	cfg := config.JWTConfig{SecretKey: "test-secret", Issuer: "tourease", Audience: "tourease-web"}
	verifier, err := NewJWTVerifier(cfg)
	require.NoError(t, err)
	identity := types.Identity{UID: "uid-7", Email: "budi@example.com", DisplayName: "Budi"}

	t.Run("round trip", func(t *testing.T) {
		token, err := verifier.Issue(identity, time.Hour)
		require.NoError(t, err)

		got, err := verifier.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "uid-7", got.UID)
		assert.Equal(t, "budi@example.com", got.Email)
		assert.Equal(t, "password", got.ProviderID)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := verifier.Issue(identity, -time.Minute)
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTVerifier(config.JWTConfig{SecretKey: "other", Issuer: "tourease", Audience: "tourease-web"})
		require.NoError(t, err)
		token, err := other.Issue(identity, time.Hour)
		require.NoError(t, err)

		_, err = verifier.Verify(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := NewJWTVerifier(config.JWTConfig{})
		assert.Error(t, err)
	})
}
