package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = "microtask-test"

func newSignedVerifier(t *testing.T) (*FirebaseVerifier, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	key, err := jwk.New(&priv.PublicKey)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, "k1"))
	require.NoError(t, key.Set(jwk.AlgorithmKey, "RS256"))
	set := jwk.NewSet()
	set.Add(key)
	payload, err := json.Marshal(set)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	v := NewFirebaseVerifier(testProject)
	v.jwksURL = srv.URL
	return v, priv
}

func signToken(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   "https://securetoken.google.com/" + testProject,
		"aud":   testProject,
		"sub":   "uid-1",
		"email": "Alice@Example.com",
		"name":  "Alice",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func TestFirebaseVerifier_AcceptsValidToken(t *testing.T) {
	v, priv := newSignedVerifier(t)

	id, err := v.Verify(context.Background(), signToken(t, priv, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "Alice", id.Name)
}

func TestFirebaseVerifier_Rejects(t *testing.T) {
	v, priv := newSignedVerifier(t)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	wrongAud := validClaims()
	wrongAud["aud"] = "someone-else"
	noEmail := validClaims()
	delete(noEmail, "email")

	tokens := map[string]string{
		"expired":       signToken(t, priv, "k1", expired),
		"wrong project": signToken(t, priv, "k1", wrongAud),
		"no email":      signToken(t, priv, "k1", noEmail),
		"unknown kid":   signToken(t, priv, "k2", validClaims()),
		"wrong key":     signToken(t, otherKey, "k1", validClaims()),
		"garbage":       "not.a.token",
	}
	for name, tok := range tokens {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			assert.Equal(t, KindUnauthorized, KindOf(err))
		})
	}
}

func TestTrustedVerifier(t *testing.T) {
	id, err := TrustedVerifier{}.Verify(context.Background(), " Bob@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", id.Email)

	_, err = TrustedVerifier{}.Verify(context.Background(), "nobody")
	assert.Equal(t, KindUnauthorized, KindOf(err))
}
