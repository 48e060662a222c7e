package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/botica/internal/domain/user"
)

var testUser = user.Public{ID: "u1", Name: "Alice", Email: "alice@example.com"}

func tamperSignature(token string) string {
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[5] == 'A' {
		sig[5] = 'B'
	} else {
		sig[5] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.Issue(testUser)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "alice@example.com", claims.Email)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), 0)

	token, err := issuer.Issue(testUser)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(6*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	token, err := issuer.Issue(testUser)
	require.NoError(t, err)

	t.Run("tampered signature", func(t *testing.T) {
		_, err := issuer.Parse(tamperSignature(token))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(token, ".")
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(`{"id":"admin","name":"Mallory","email":"m@example.com","exp":9999999999}`))
		_, err := issuer.Parse(strings.Join(parts, "."))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenIssuer([]byte("another-secret"), time.Hour)
		_, err := other.Parse(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenIssuer([]byte("test-secret"), time.Hour)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		old, err := past.Issue(testUser)
		require.NoError(t, err)

		_, err = issuer.Parse(old)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u1"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Parse(none)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not-a-token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "empty", header: "", wantErr: ErrMissingToken},
		{name: "blank", header: "   ", wantErr: ErrMissingToken},
		{name: "no scheme", header: "abc.def.ghi", wantErr: ErrMalformedToken},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrMalformedToken},
		{name: "too many parts", header: "Bearer a b", wantErr: ErrMalformedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
