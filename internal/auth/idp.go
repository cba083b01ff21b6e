// AngelaMos | 2026
// idp.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/tenant-platform/internal/config"
	"github.com/carterperez-dev/tenant-platform/internal/core"
)

// ExternalIdentity is what a validated identity provider assertion yields.
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
}

type IdentityProvider interface {
	Validate(ctx context.Context, token string) (*ExternalIdentity, error)
}

// KeySource supplies the provider's current verification keys.
type KeySource interface {
	KeySet(ctx context.Context) (jwk.Set, error)
}

// RemoteKeySource serves the provider's JWKS from a jwk.Cache. The cache
// refetches in the background until ctx ends, and a failed refetch keeps
// the last good set.
type RemoteKeySource struct {
	cache   *jwk.Cache
	url     string
	lookup  time.Duration
	refetch *rate.Limiter
}

func NewRemoteKeySource(
	ctx context.Context,
	url string,
	refresh time.Duration,
	client *http.Client,
) (*RemoteKeySource, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if refresh <= 0 {
		refresh = 15 * time.Minute
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("create jwks cache: %w", err)
	}

	if err := cache.Register(ctx, url,
		jwk.WithHTTPClient(client),
		jwk.WithMinInterval(min(refresh, time.Minute)),
		jwk.WithMaxInterval(refresh),
		jwk.WithWaitReady(false),
	); err != nil {
		return nil, fmt.Errorf("register jwks %s: %w", url, err)
	}

	return &RemoteKeySource{
		cache:   cache,
		url:     url,
		lookup:  10 * time.Second,
		refetch: rate.NewLimiter(rate.Every(time.Minute), 1),
	}, nil
}

func (s *RemoteKeySource) KeySet(ctx context.Context) (jwk.Set, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookup)
	defer cancel()

	set, err := s.cache.Lookup(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("lookup jwks: %w", err)
	}
	return set, nil
}

// RefreshKeys refetches immediately, at most once a minute. Used when an
// assertion names a key id the cached set does not hold yet.
func (s *RemoteKeySource) RefreshKeys(ctx context.Context) (jwk.Set, error) {
	if !s.refetch.Allow() {
		return nil, errRefreshThrottled
	}

	ctx, cancel := context.WithTimeout(ctx, s.lookup)
	defer cancel()

	set, err := s.cache.Refresh(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("refresh jwks: %w", err)
	}
	return set, nil
}

var errRefreshThrottled = errors.New("jwks refresh throttled")

type keyRefresher interface {
	RefreshKeys(ctx context.Context) (jwk.Set, error)
}

type StaticKeySource struct {
	set jwk.Set
}

func NewStaticKeySource(keys ...jwk.Key) (*StaticKeySource, error) {
	set := jwk.NewSet()
	for _, k := range keys {
		if err := set.AddKey(k); err != nil {
			return nil, fmt.Errorf("add key: %w", err)
		}
	}
	return &StaticKeySource{set: set}, nil
}

func (s *StaticKeySource) KeySet(context.Context) (jwk.Set, error) {
	return s.set, nil
}

// JWKSProvider validates signed assertions from one external issuer.
type JWKSProvider struct {
	keys       KeySource
	issuer     string
	audience   string
	skew       time.Duration
	emailClaim string
	nameClaim  string
}

func NewJWKSProvider(cfg config.FederationConfig, keys KeySource) *JWKSProvider {
	p := &JWKSProvider{
		keys:       keys,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		skew:       cfg.AcceptableSkew,
		emailClaim: cfg.EmailClaim,
		nameClaim:  cfg.NameClaim,
	}
	if p.emailClaim == "" {
		p.emailClaim = "email"
	}
	if p.nameClaim == "" {
		p.nameClaim = "name"
	}
	return p
}

func (p *JWKSProvider) Validate(ctx context.Context, token string) (*ExternalIdentity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("validate assertion: empty token: %w", core.ErrInvalidFederatedToken)
	}

	set, err := p.keys.KeySet(ctx)
	if err != nil {
		return nil, fmt.Errorf("validate assertion: %w", err)
	}

	if kid := headerKeyID(token); kid != "" {
		if _, ok := set.LookupKeyID(kid); !ok {
			set = p.refreshed(ctx, set)
		}
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(p.issuer),
		jwt.WithAcceptableSkew(p.skew),
	}
	if p.audience != "" {
		opts = append(opts, jwt.WithAudience(p.audience))
	}

	parsed, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, fmt.Errorf("validate assertion: expired: %w", core.ErrInvalidFederatedToken)
		}
		return nil, fmt.Errorf("validate assertion: %v: %w", err, core.ErrInvalidFederatedToken)
	}

	if _, ok := parsed.Expiration(); !ok {
		return nil, fmt.Errorf("validate assertion: missing exp: %w", core.ErrInvalidFederatedToken)
	}

	subject, ok := parsed.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf("validate assertion: missing sub: %w", core.ErrInvalidFederatedToken)
	}

	var email string
	if err := parsed.Get(p.emailClaim, &email); err != nil || strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("validate assertion: missing %s: %w", p.emailClaim, core.ErrInvalidFederatedToken)
	}

	var name string
	//nolint:errcheck // display name is optional
	_ = parsed.Get(p.nameClaim, &name)

	return &ExternalIdentity{
		Subject: subject,
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Name:    strings.TrimSpace(name),
	}, nil
}

// refreshed swaps in a freshly fetched set when the source supports it, and
// otherwise keeps the current one.
func (p *JWKSProvider) refreshed(ctx context.Context, current jwk.Set) jwk.Set {
	r, ok := p.keys.(keyRefresher)
	if !ok {
		return current
	}
	fresh, err := r.RefreshKeys(ctx)
	if err != nil {
		return current
	}
	return fresh
}

func headerKeyID(token string) string {
	msg, err := jws.Parse([]byte(token))
	if err != nil || len(msg.Signatures()) == 0 {
		return ""
	}
	kid, _ := msg.Signatures()[0].ProtectedHeaders().KeyID()
	return kid
}
