package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/kioku-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, secret string, at time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACService(config.AuthConfig{JWTSecret: secret, TokenLifetimeMinutes: 60},
		func() time.Time { return at })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 5})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	svc := newTestService(t, testSecret, fixedTime)

	token, err := svc.GenerateToken(context.Background(), learnerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, learnerID, claims.LearnerID)
	assert.Equal(t, learnerID.String(), claims.Subject)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	sign := func(claims jwtCustomClaims, method jwt.SigningMethod, key any) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	registered := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(fixedTime),
		ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
	}

	tests := []struct {
		name    string
		token   func() string
		at      time.Time
		secret  string
		wantErr error
	}{
		{
			name: "valid token",
			token: func() string {
				tok, _ := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), learnerID)
				return tok
			},
			at:     fixedTime,
			secret: testSecret,
		},
		{
			name: "within clock skew after expiry",
			token: func() string {
				tok, _ := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), learnerID)
				return tok
			},
			at:     fixedTime.Add(time.Hour + time.Minute),
			secret: testSecret,
		},
		{
			name: "expired token",
			token: func() string {
				tok, _ := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), learnerID)
				return tok
			},
			at:      fixedTime.Add(2 * time.Hour),
			secret:  testSecret,
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func() string {
				rc := registered
				rc.NotBefore = jwt.NewNumericDate(fixedTime.Add(10 * time.Minute))
				return sign(jwtCustomClaims{LearnerID: learnerID, TokenType: "access", RegisteredClaims: rc},
					jwt.SigningMethodHS256, []byte(testSecret))
			},
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name: "invalid signature",
			token: func() string {
				tok, _ := newTestService(t, testSecret, fixedTime).GenerateToken(context.Background(), learnerID)
				return tok
			},
			at:      fixedTime,
			secret:  wrongSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   func() string { return "this.is.not.a.valid.jwt.token" },
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name: "other signing method",
			token: func() string {
				return sign(jwtCustomClaims{LearnerID: learnerID, TokenType: "access", RegisteredClaims: registered},
					jwt.SigningMethodHS512, []byte(testSecret))
			},
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token type",
			token: func() string {
				return sign(jwtCustomClaims{LearnerID: learnerID, TokenType: "refresh", RegisteredClaims: registered},
					jwt.SigningMethodHS256, []byte(testSecret))
			},
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrWrongTokenType,
		},
		{
			name: "missing learner id",
			token: func() string {
				return sign(jwtCustomClaims{TokenType: "access", RegisteredClaims: registered},
					jwt.SigningMethodHS256, []byte(testSecret))
			},
			at:      fixedTime,
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.secret, tt.at)
			claims, err := svc.ValidateToken(context.Background(), tt.token())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, learnerID, claims.LearnerID)
		})
	}
}
