package portalclient

import (
	"context"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/internship/core/portal"
)

// refreshSkew is how close to expiry a token gets refreshed.
const refreshSkew = 30 * time.Second

var NowFunc = time.Now // mockable

// Login signs in with any role; the tokens of a successful login are stored.
func (c *Client) Login(ctx context.Context, email, password string) Response {
	resp := c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/api/auth/login",
		body:    portal.LoginRequest{Email: email, Password: password},
		timeout: c.loginTimeout,
	})
	if resp.Success && resp.Token != "" {
		c.SetTokens(resp.Token, resp.RefreshToken)
	}
	return resp
}

// RegisterStudent checks the registration number and email before calling the API.
func (c *Client) RegisterStudent(ctx context.Context, req portal.RegisterRequest) Response {
	req.Name = trim(req.Name)
	req.Email = lower(req.Email)
	req.RegNo = portal.NormalizeRegNo(trim(req.RegNo))
	if req.Name == "" || req.Email == "" || req.Password == "" || req.RegNo == "" {
		return failure("Name, email, password and registration number are required")
	}
	if err := portal.CheckRegistration(req.RegNo, req.Email); err != nil {
		return failure(err.Error())
	}
	return c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/api/auth/register",
		body:    req,
		timeout: c.registerTimeout,
	})
}

func (c *Client) VerifyEmail(ctx context.Context, token string) Response {
	return c.send(ctx, http.MethodPost, "/api/auth/verify-email", portal.TokenRequest{Token: token})
}

func (c *Client) SendVerificationEmail(ctx context.Context, email string) Response {
	return c.send(ctx, http.MethodPost, "/api/auth/send-verification-email", portal.EmailRequest{Email: email})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) Response {
	return c.send(ctx, http.MethodPost, "/api/auth/forgot-password", portal.EmailRequest{Email: email})
}

func (c *Client) ResetPassword(ctx context.Context, token, password string) Response {
	return c.send(ctx, http.MethodPost, "/api/auth/reset-password", portal.ResetPasswordRequest{
		Token:           token,
		Password:        password,
		PasswordConfirm: password,
	})
}

// RefreshToken trades the stored refresh token (or the access token) for a new access token.
func (c *Client) RefreshToken(ctx context.Context) Response {
	bearer := c.tokens.Get(KeyRefreshToken)
	if bearer == "" {
		bearer = c.Token()
	}
	if bearer == "" {
		return failure("Not signed in")
	}
	resp := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/api/auth/refresh-token",
		bearer: bearer,
	})
	if resp.Success && resp.Token != "" {
		c.SetTokens(resp.Token, resp.RefreshToken)
	}
	return resp
}

// EnsureFreshToken returns a token valid for at least another 30s, refreshing it when needed.
// An empty token with a nil error means the user is not signed in.
func (c *Client) EnsureFreshToken(ctx context.Context) (string, error) {
	token := c.Token()
	if token != "" {
		exp, ok := tokenExpiry(token)
		if !ok || NowFunc().Add(refreshSkew).Before(exp) {
			return token, nil
		}
	} else if c.tokens.Get(KeyRefreshToken) == "" {
		return "", nil
	}
	resp := c.RefreshToken(ctx)
	if !resp.Success {
		return c.Token(), &RequestError{Message: resp.Message, StatusCode: resp.StatusCode}
	}
	return c.Token(), nil
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	case int64:
		return time.Unix(exp, 0), true
	}
	return time.Time{}, false
}

// RequestError is returned by the few calls that fail instead of answering a Response.
type RequestError struct {
	Message    string
	StatusCode int
}

func (e *RequestError) Error() string { return e.Message }
