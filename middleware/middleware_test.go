package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"capture/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, userID string, secret []byte) string {
	t.Helper()
	claims := &Claims{
		Username: userID,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

// identityEcho records the user ID the middleware left on the context.
func identityEcho(seen *string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		*seen, _ = r.Context().Value(globals.UserIDKey).(string)
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	var seen string
	rec := httptest.NewRecorder()
	Authenticate(identityEcho(&seen))(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, seen)
}

func TestAuthenticateStoresUserID(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "alice", globals.JwtSecret))
	rec := httptest.NewRecorder()

	Authenticate(identityEcho(&seen))(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", seen)
}

func TestOptionalAuthWithoutToken(t *testing.T) {
	var seen string
	rec := httptest.NewRecorder()
	OptionalAuth(identityEcho(&seen))(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, seen)
}

func TestOptionalAuthWithToken(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signedToken(t, "alice", globals.JwtSecret))
	rec := httptest.NewRecorder()

	OptionalAuth(identityEcho(&seen))(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", seen)
}

func TestOptionalAuthIgnoresInvalidToken(t *testing.T) {
	var seen string
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	OptionalAuth(identityEcho(&seen))(rec, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, seen)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	_, err := ParseToken(signedToken(t, "alice", []byte("someone-elses-secret")))
	require.Error(t, err)
}
