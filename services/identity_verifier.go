package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/lestrrat-go/jwx/jwk"
)

const (
	firebaseJWKSURL   = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	firebaseIssuerFmt = "https://securetoken.google.com/%s"
	jwksCacheTTL      = time.Hour
)

// VerifiedIdentity is what a sign-in provider vouches for
type VerifiedIdentity struct {
	Email string
	Name  string
}

// IdentityVerifier checks a provider ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error)
}

// FirebaseVerifier validates Firebase Auth ID tokens against Google's JWKS.
type FirebaseVerifier struct {
	projectID string
	jwksURL   string

	mu        sync.Mutex
	keys      jwk.Set
	fetchedAt time.Time
}

func NewFirebaseVerifier(projectID string) *FirebaseVerifier {
	return &FirebaseVerifier{projectID: projectID, jwksURL: firebaseJWKSURL}
}

func (v *FirebaseVerifier) keySet(ctx context.Context) (jwk.Set, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.keys != nil && time.Since(v.fetchedAt) < jwksCacheTTL {
		return v.keys, nil
	}
	set, err := jwk.Fetch(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch signing keys: %w", err)
	}
	v.keys = set
	v.fetchedAt = time.Now()
	return set, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*VerifiedIdentity, error) {
	set, err := v.keySet(ctx)
	if err != nil {
		return nil, internal("failed to load signing keys", err)
	}

	parsed, err := jwt.Parse(idToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		key, found := set.LookupKeyID(kid)
		if !found {
			return nil, fmt.Errorf("public key not found for kid %q", kid)
		}
		var pubkey interface{}
		if err := key.Raw(&pubkey); err != nil {
			return nil, err
		}
		return pubkey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, &Error{Kind: KindUnauthorized, Message: "invalid or expired id token", Err: err}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, &Error{Kind: KindUnauthorized, Message: "invalid id token claims"}
	}
	if !claims.VerifyAudience(v.projectID, true) || !claims.VerifyIssuer(fmt.Sprintf(firebaseIssuerFmt, v.projectID), true) {
		return nil, &Error{Kind: KindUnauthorized, Message: "id token was issued for another project"}
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return nil, &Error{Kind: KindUnauthorized, Message: "id token carries no email"}
	}
	name, _ := claims["name"].(string)
	return &VerifiedIdentity{Email: normalizeEmail(email), Name: name}, nil
}

// TrustedVerifier accepts the token as a bare email address. Development only.
type TrustedVerifier struct{}

func (TrustedVerifier) Verify(_ context.Context, idToken string) (*VerifiedIdentity, error) {
	email := normalizeEmail(idToken)
	if !strings.Contains(email, "@") {
		return nil, &Error{Kind: KindUnauthorized, Message: "expected an email address"}
	}
	return &VerifiedIdentity{Email: email}, nil
}
