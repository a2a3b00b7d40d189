package fcmv1

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// TokenProvider exchanges a service account credential for access tokens scoped to fcm.
type TokenProvider struct {
	conf   *jwt.Config
	client *http.Client
	reuse  oauth2.TokenSource
}

// NormalizePrivateKey turns literal "\n" sequences into newlines.
// Keys supplied through a single-line environment value arrive escaped.
func NormalizePrivateKey(key string) string {
	return strings.Replace(key, `\n`, "\n", -1)
}

// NewTokenProvider creates a TokenProvider. An empty tokenURL means google's token endpoint.
// When cache is false every call to Token performs a fresh token exchange.
func NewTokenProvider(clientEmail, privateKey, tokenURL string, timeout time.Duration, cache bool) *TokenProvider {
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	tp := &TokenProvider{
		conf: &jwt.Config{
			Email:      clientEmail,
			PrivateKey: []byte(NormalizePrivateKey(privateKey)),
			Scopes:     []string{Scope},
			TokenURL:   tokenURL,
		},
		client: &http.Client{Timeout: timeout},
	}
	if cache {
		tp.reuse = oauth2.ReuseTokenSource(nil, tp.conf.TokenSource(tp.withClient(context.Background())))
	}
	return tp
}

// Token returns an access token. Every failure wraps ErrTokenUnavailable.
func (tp *TokenProvider) Token(ctx context.Context) (string, error) {
	if tp.conf.Email == "" || len(tp.conf.PrivateKey) == 0 {
		return "", errors.Wrap(ErrTokenUnavailable, "client_email or private_key is empty")
	}

	ts := tp.reuse
	if ts == nil {
		ts = tp.conf.TokenSource(tp.withClient(ctx))
	}
	t, err := ts.Token()
	if err != nil {
		return "", errors.Wrapf(ErrTokenUnavailable, "%s", err)
	}
	if t.AccessToken == "" {
		return "", errors.Wrap(ErrTokenUnavailable, "empty access token")
	}
	return t.AccessToken, nil
}

func (tp *TokenProvider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, tp.client)
}
