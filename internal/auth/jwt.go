// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/core"
	"github.com/carterperez-dev/tenant-platform/internal/middleware"
)

// Private claim names carried by a session token.
const (
	claimType         = "type"
	claimRole         = "role"
	claimAuthType     = "auth_type"
	claimTenantID     = "tenant_id"
	claimTenantStatus = "tenant_status"

	sessionTokenType = "session"
)

// SessionClaims are the only facts a session carries. Entitlements and
// branding are never signed into it.
type SessionClaims struct {
	UserID       string
	Role         string
	AuthType     string
	TenantID     string
	TenantStatus string
}

// JWTManager signs and verifies ES256 session tokens with one key pair and
// publishes the public half as a JWKS.
type JWTManager struct {
	signer   jwk.Key
	verifier jwk.Key
	kid      string
	jwks     []byte
	issuer   string
	audience string
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	pemBytes, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read session key: %w", err)
	}

	key, err := jwk.ParseKey(pemBytes, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse session key: %w", err)
	}

	m := &JWTManager{issuer: cfg.Issuer, audience: cfg.Audience}
	if err := m.install(key); err != nil {
		return nil, err
	}
	return m, nil
}

// install tags the private key with ES256 and a thumbprint key id, so the
// kid stays stable across restarts, and prepares the published key set.
func (m *JWTManager) install(key jwk.Key) error {
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return fmt.Errorf("key thumbprint: %w", err)
	}
	kid := base64.RawURLEncoding.EncodeToString(sum[:12])

	for name, value := range map[string]any{
		jwk.AlgorithmKey: jwa.ES256(),
		jwk.KeyIDKey:     kid,
	} {
		if err := key.Set(name, value); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}

	public, err := key.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}
	if err := public.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return fmt.Errorf("set key usage: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		return fmt.Errorf("build key set: %w", err)
	}
	body, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode key set: %w", err)
	}

	m.signer = key
	m.verifier = public
	m.kid = kid
	m.jwks = body
	return nil
}

func (m *JWTManager) KeyID() string {
	return m.kid
}

func (m *JWTManager) SignSession(claims SessionClaims, ttl time.Duration) (string, time.Time, error) {
	issuedAt := time.Now()
	expiresAt := issuedAt.Add(ttl)

	token, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Issuer(m.issuer).
		Audience([]string{m.audience}).
		Subject(claims.UserID).
		IssuedAt(issuedAt).
		NotBefore(issuedAt).
		Expiration(expiresAt).
		Claim(claimType, sessionTokenType).
		Claim(claimRole, claims.Role).
		Claim(claimAuthType, claims.AuthType).
		Claim(claimTenantID, claims.TenantID).
		Claim(claimTenantStatus, claims.TenantStatus).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.signer))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return string(signed), expiresAt, nil
}

// VerifySession checks signature, issuer, audience and expiry and rebuilds
// the request session from the claims.
func (m *JWTManager) VerifySession(_ context.Context, raw string) (*middleware.Session, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.ES256(), m.verifier),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, fmt.Errorf("verify session: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify session: %w", core.ErrTokenInvalid)
	}

	session, err := sessionFromToken(token)
	if err != nil {
		return nil, fmt.Errorf("verify session: %w: %w", err, core.ErrTokenInvalid)
	}
	return session, nil
}

func sessionFromToken(token jwt.Token) (*middleware.Session, error) {
	var kind string
	if err := token.Get(claimType, &kind); err != nil || kind != sessionTokenType {
		return nil, errors.New("not a session token")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, errors.New("missing subject")
	}

	expiresAt, ok := token.Expiration()
	if !ok {
		return nil, errors.New("missing expiry")
	}

	s := &middleware.Session{UserID: subject, ExpiresAt: expiresAt}
	for claim, dst := range map[string]*string{
		claimRole:         &s.Role,
		claimAuthType:     &s.AuthType,
		claimTenantID:     &s.TenantID,
		claimTenantStatus: &s.TenantStatus,
	} {
		if err := token.Get(claim, dst); err != nil || *dst == "" {
			return nil, fmt.Errorf("missing %s", claim)
		}
	}
	return s, nil
}

// JWKSHandler serves the public verification key so other services can
// check sessions without sharing a secret.
func (m *JWTManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(m.jwks) //nolint:errcheck // best-effort response write
	}
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM. The private file is
// owner-only.
func GenerateKeyPair(privatePath, publicPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import key: %w", err)
	}
	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	if err := writePEM(privatePath, private, 0o600); err != nil {
		return err
	}
	return writePEM(publicPath, public, 0o644)
}

func writePEM(path string, key jwk.Key, perm os.FileMode) error {
	data, err := jwk.Pem(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	//nolint:gosec // G306: perm is chosen per key half by the caller
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var _ middleware.SessionVerifier = (*JWTManager)(nil)
