// Package jwt issues and verifies HS512-signed bearer tokens and provides
// the bearer-token Authenticator for the auth chain.
//
// Tokens carry only the subject, issue time, and expiry. There is no
// server-side session or revocation list: a token is valid until it
// expires. Rotating the signing secret invalidates every outstanding token.
package jwt

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/letsplay/pkg/auth"
	"github.com/rhuss/letsplay/pkg/observability"
)

// KeySize is the HS512 key length in bytes. Shorter secrets are expanded
// to this size with SHA-512.
const KeySize = sha512.Size

var (
	// ErrEmptySecret is returned when no signing secret is configured.
	ErrEmptySecret = errors.New("jwt: signing secret is empty")

	// ErrInvalidTTL is returned for a non-positive token lifetime.
	ErrInvalidTTL = errors.New("jwt: token ttl must be positive")

	// ErrInvalidToken is returned when a subject is requested from a token
	// that did not verify.
	ErrInvalidToken = errors.New("jwt: invalid token")

	errEmptyToken     = errors.New("token is empty")
	errMissingSubject = errors.New("token has no subject")
)

// DeriveKey returns the HMAC key for secret. Secrets shorter than KeySize
// are replaced by their SHA-512 digest; longer secrets are used as is.
func DeriveKey(secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if len(secret) < KeySize {
		sum := sha512.Sum512(secret)
		return sum[:], nil
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return key, nil
}

// Codec issues and verifies tokens with a fixed key and lifetime.
type Codec struct {
	key []byte
	ttl time.Duration
}

// NewCodec creates a Codec. Expiry is encoded with millisecond precision,
// the unit the ttl is configured in.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	return &Codec{key: key, ttl: ttl}, nil
}

// TTL returns the token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue returns a signed token for subject, issued at now. The token
// verifies at any instant before now+ttl, truncated to the millisecond.
func (c *Codec) Issue(subject string, now time.Time) (string, error) {
	exp := expiry(now.Add(c.ttl))
	claims := &tokenClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwtlib.NewNumericDate(now),
		},
		ExpiresAt: &exp,
	}
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS512, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// tokenClaims replaces the registered exp claim with a millisecond one. The
// library decodes NumericDate through a float64 and truncates to whole
// seconds, which would end tokens up to a second early.
type tokenClaims struct {
	jwtlib.RegisteredClaims
	ExpiresAt *expiry `json:"exp,omitempty"`
}

func (c *tokenClaims) GetExpirationTime() (*jwtlib.NumericDate, error) {
	if c.ExpiresAt == nil {
		return nil, nil
	}
	return &jwtlib.NumericDate{Time: time.Time(*c.ExpiresAt)}, nil
}

// expiry is a NumericDate in seconds with three decimals.
type expiry time.Time

func (e expiry) MarshalJSON() ([]byte, error) {
	ms := time.Time(e).UnixMilli()
	return strconv.AppendFloat(nil, float64(ms)/1e3, 'f', 3, 64), nil
}

// UnmarshalJSON rounds to the nearest millisecond, which absorbs the
// float error of the decimal seconds.
func (e *expiry) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("exp: %w", err)
	}
	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("exp: %w", err)
	}
	*e = expiry(time.UnixMilli(int64(math.Round(f * 1e3))))
	return nil
}

// Result is the outcome of Verify. The subject is only reachable when the
// token verified.
type Result struct {
	subject string
	err     error
}

// Valid reports whether the token verified.
func (r Result) Valid() bool {
	return r.err == nil
}

// Subject returns the verified subject, or ErrInvalidToken.
func (r Result) Subject() (string, error) {
	if r.err != nil {
		return "", ErrInvalidToken
	}
	return r.subject, nil
}

// Err returns the verification failure, for diagnostics only.
func (r Result) Err() error {
	return r.err
}

// Reason classifies the failure for logs and metrics. Empty when valid.
func (r Result) Reason() string {
	switch err := r.err; {
	case err == nil:
		return ""
	case errors.Is(err, errEmptyToken):
		return "empty"
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwtlib.ErrTokenUnverifiable):
		return "unsupported"
	default:
		return "invalid"
	}
}

// Verify checks the token's structure, signature, and expiry at now.
// Every failure yields an invalid Result; Verify never panics or returns
// an error to its caller.
func (c *Codec) Verify(token string, now time.Time) Result {
	if strings.TrimSpace(token) == "" {
		return Result{err: errEmptyToken}
	}

	claims := &tokenClaims{}
	_, err := jwtlib.ParseWithClaims(token, claims, c.keyfunc,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS512.Alg()}),
		jwtlib.WithTimeFunc(func() time.Time { return now }),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithStrictDecoding(),
	)
	if err != nil {
		return Result{err: err}
	}
	if claims.Subject == "" {
		return Result{err: fmt.Errorf("%w: %w", jwtlib.ErrTokenInvalidClaims, errMissingSubject)}
	}
	return Result{subject: claims.Subject}
}

// ExtractSubject verifies token at now and returns its subject.
func (c *Codec) ExtractSubject(token string, now time.Time) (string, error) {
	return c.Verify(token, now).Subject()
}

func (c *Codec) keyfunc(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return c.key, nil
}

// Authenticator validates "Authorization: Bearer" tokens with a Codec.
type Authenticator struct {
	codec *Codec
	now   func() time.Time
}

// Ensure Authenticator implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates a bearer-token Authenticator.
func NewAuthenticator(codec *Codec) *Authenticator {
	return &Authenticator{codec: codec, now: time.Now}
}

// Authenticate abstains when there is no bearer token, votes No when the
// token does not verify, and Yes with the token subject otherwise.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.AuthResult {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	res := a.codec.Verify(strings.TrimPrefix(header, "Bearer "), a.now())
	if !res.Valid() {
		reason := res.Reason()
		observability.AuthTokenRejectedTotal.WithLabelValues(reason).Inc()
		slog.Debug("JWT validation failed", "reason", reason, "path", r.URL.Path, "error", res.Err())
		return auth.AuthResult{Decision: auth.No, Err: res.Err()}
	}

	subject, _ := res.Subject()
	return auth.AuthResult{
		Decision: auth.Yes,
		Identity: &auth.Identity{Subject: subject},
	}
}
