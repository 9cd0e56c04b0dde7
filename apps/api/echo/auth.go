package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
	"github.com/trezcool/internship/core/portal"
)

const (
	contextTokenKey     = "userToken"
	contextPrincipalKey = "principal"
	tokenAudience       = "Internship"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64       `json:"oriat,omitempty"`
	Role         portal.Role `json:"role"`
	StudentID    string      `json:"studentId,omitempty"`
	FacultyID    string      `json:"facultyId,omitempty"`
	SiteID       string      `json:"siteId,omitempty"`
	Email        string      `json:"email,omitempty"`
	Name         string      `json:"name,omitempty"`
	Refresh      bool        `json:"refresh,omitempty"` // only good for /auth/refresh-token
}

func (c Claims) Principal() portal.Principal {
	return portal.Principal{
		Role:      c.Role,
		StudentID: c.StudentID,
		FacultyID: c.FacultyID,
		SiteID:    c.SiteID,
		Email:     c.Email,
		Name:      c.Name,
	}
}

// tokenIssuer signs the access and refresh tokens of a session.
type tokenIssuer struct {
	appName      string
	key          []byte
	method       string
	expiration   time.Duration
	refreshDelta time.Duration
}

func newTokenIssuer(conf *core.Config) *tokenIssuer {
	return &tokenIssuer{
		appName:      conf.AppName,
		key:          []byte(conf.SecretKey),
		method:       middleware.AlgorithmHS256,
		expiration:   conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
	}
}

// jwtConfig is the JWT auth middleware config.
func (ti *tokenIssuer) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    ti.key,
		SigningMethod: ti.method,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims returns the claims of p. origIat carries the original issue time over refreshes.
func (ti *tokenIssuer) Claims(p portal.Principal, refresh bool, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	exp := now.Add(ti.expiration).Unix()
	if refresh {
		exp = time.Unix(oriat, 0).Add(ti.refreshDelta).Unix()
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.appName,
			Subject:   p.ID(),
			Audience:  tokenAudience,
			ExpiresAt: exp,
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         p.Role,
		StudentID:    p.StudentID,
		FacultyID:    p.FacultyID,
		SiteID:       p.SiteID,
		Email:        p.Email,
		Name:         p.Name,
		Refresh:      refresh,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (ti *tokenIssuer) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(ti.method)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type tokenPair struct {
	access  string
	refresh string
}

func (ti *tokenIssuer) issue(p portal.Principal, origIat ...int64) (tokenPair, error) {
	access, err := ti.GenerateToken(ti.Claims(p, false, origIat...))
	if err != nil {
		return tokenPair{}, errors.Wrap(err, "generating access token")
	}
	refresh, err := ti.GenerateToken(ti.Claims(p, true, origIat...))
	if err != nil {
		return tokenPair{}, errors.Wrap(err, "generating refresh token")
	}
	return tokenPair{access: access, refresh: refresh}, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextPrincipal returns the principal set by roleMiddleware, falling back to the token claims.
func getContextPrincipal(ctx echo.Context) (portal.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(portal.Principal); ok {
		return p, nil
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return portal.Principal{}, err
	}
	return claims.Principal(), nil
}

func refreshToken(ctx echo.Context, ti *tokenIssuer, store *portal.Store) (portal.Principal, tokenPair, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return portal.Principal{}, tokenPair{}, errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(ti.refreshDelta)
	if time.Now().After(expTime) {
		return portal.Principal{}, tokenPair{}, errRefreshExpired
	}

	// the account may have been removed since login
	p, err := store.Principal(claims.Role, claims.Subject)
	if err != nil {
		if portal.IsNotFound(err) {
			return portal.Principal{}, tokenPair{}, errUnauthorized
		}
		return portal.Principal{}, tokenPair{}, errors.Wrap(err, "loading principal")
	}

	pair, err := ti.issue(p, claims.OrigIssuedAt)
	return p, pair, errors.Wrap(err, "issuing tokens")
}
