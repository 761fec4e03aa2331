package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newTestService() *JWTService {
	return NewJWTService("test-secret", "blogapi", "blogapi-clients")
}

func TestJWTService_RoundTrip(t *testing.T) {
	s := newTestService()

	token, err := s.GenerateToken(42, "alice", "alice@x.com", "Alice", "Smith")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := s.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@x.com", claims.Email)
	assert.Equal(t, "Alice", claims.FirstName)
	assert.Equal(t, "Smith", claims.LastName)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_ValidateFailsClosed(t *testing.T) {
	s := newTestService()

	signWith := func(svc *JWTService, claims *Claims) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := tok.SignedString(svc.secret)
		assert.NoError(t, err)
		return signed
	}

	baseClaims := func() *Claims {
		return &Claims{
			UserID:   42,
			Username: "alice",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "blogapi",
				Audience:  jwt.ClaimStrings{"blogapi-clients"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{
			name: "expired token",
			token: func() string {
				c := baseClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return signWith(s, c)
			},
		},
		{
			name: "wrong signing key",
			token: func() string {
				other := NewJWTService("other-secret", "blogapi", "blogapi-clients")
				return signWith(other, baseClaims())
			},
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := baseClaims()
				c.Issuer = "someone-else"
				return signWith(s, c)
			},
		},
		{
			name: "wrong audience",
			token: func() string {
				c := baseClaims()
				c.Audience = jwt.ClaimStrings{"other-clients"}
				return signWith(s, c)
			},
		},
		{
			name:  "malformed token",
			token: func() string { return "not.a.token" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := s.ValidateToken(tt.token())
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestResolveUserID(t *testing.T) {
	s := newTestService()

	token, err := s.GenerateToken(7, "bob", "bob@x.com", "", "")
	assert.NoError(t, err)

	id, ok := s.ResolveUserID(token)
	assert.True(t, ok)
	assert.Equal(t, uint(7), id)

	_, ok = s.ResolveUserID("")
	assert.False(t, ok)

	_, ok = s.ResolveUserID("garbage")
	assert.False(t, ok)
}

func TestResolveUserID_SubjectIsIdentity(t *testing.T) {
	s := newTestService()

	// A validly signed token whose subject is not a numeric id must not
	// resolve, even though the named claims look plausible.
	now := time.Now()
	claims := &Claims{
		UserID:   7,
		Username: "bob",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob",
			Issuer:    "blogapi",
			Audience:  jwt.ClaimStrings{"blogapi-clients"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	assert.NoError(t, err)

	_, ok := s.ResolveUserID(signed)
	assert.False(t, ok)
}

func TestCurrentUserID_ParsesSubject(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := CurrentUserID(c)
	assert.False(t, ok)

	c.Set("user", &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}})
	id, ok := CurrentUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	c.Set("user", &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "carol"}})
	_, ok = CurrentUserID(c)
	assert.False(t, ok)
}
