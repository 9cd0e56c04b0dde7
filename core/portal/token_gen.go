package portal

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	tokenSalt = []byte("internship.core.portal.token_gen")

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// TokenPurpose separates the token spaces, a verification token never resets a password.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposePasswordReset TokenPurpose = "password-reset"
)

// TokenSubject is the account a token is issued for.
// State is folded into the signature, so changing it (e.g. the password hash) invalidates older tokens.
type TokenSubject struct {
	Role  Role
	ID    string
	State []byte
}

// TokenGenerator issues one-time tokens formatted as "<uid>.<timestamp>-<signature>".
type TokenGenerator struct {
	secretKey string
	timeout   time.Duration
}

func NewTokenGenerator(secretKey string, timeout time.Duration) *TokenGenerator {
	return &TokenGenerator{secretKey: secretKey, timeout: timeout}
}

// EncodeUID base64 encodes the role and id of a subject.
func EncodeUID(role Role, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(string(role) + ":" + id))
}

// DecodeUID reads back the role and id from the uid part of a token.
func DecodeUID(token string) (Role, string, error) {
	uid, _, ok := strings.Cut(token, ".")
	if !ok {
		return "", "", errInvalidToken
	}
	data, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", "", errInvalidToken
	}
	role, id, ok := strings.Cut(string(data), ":")
	if !ok || id == "" {
		return "", "", errInvalidToken
	}
	return Role(role), id, nil
}

// MakeToken generates a token for sub.
func (g *TokenGenerator) MakeToken(purpose TokenPurpose, sub TokenSubject) (string, error) {
	tsToken, err := g.makeTokenWithTimestamp(purpose, sub, numDaysSince2001(NowFunc()))
	if err != nil {
		return "", err
	}
	return EncodeUID(sub.Role, sub.ID) + "." + tsToken, nil
}

// VerifyToken checks that token was issued for sub and has not expired.
func (g *TokenGenerator) VerifyToken(purpose TokenPurpose, sub TokenSubject, token string) error {
	if token == "" {
		return errInvalidToken
	}
	uid, tsToken, ok := strings.Cut(token, ".")
	if !ok || uid != EncodeUID(sub.Role, sub.ID) {
		return errInvalidToken
	}

	parts := strings.SplitN(tsToken, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}
	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(parts[0])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken, err := g.makeTokenWithTimestamp(purpose, sub, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(tsToken)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if (numDaysSince2001(NowFunc()) - ts) > int(g.timeout/(24*time.Hour)) {
		return errTokenExpired
	}
	return nil
}

func (g *TokenGenerator) makeTokenWithTimestamp(purpose TokenPurpose, sub TokenSubject, ts int) (string, error) {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))
	sig, err := g.sign(hashValue(purpose, sub, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func numDaysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

func (g *TokenGenerator) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, tokenSalt...), g.secretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func hashValue(purpose TokenPurpose, sub TokenSubject, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(string(purpose))
	val.WriteString(string(sub.Role))
	val.WriteString(sub.ID)
	val.Write(sub.State)
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}
