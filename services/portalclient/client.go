// Package portalclient is the Go client of the portal REST API.
//
// Every call returns a normalized Response: network failures and non-2xx answers
// become a Response with Success false and a user facing Message. A call that
// times out is retried once; nothing else is retried.
package portalclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/internship/core"
)

const (
	loginTimeout    = 7 * time.Second
	registerTimeout = 5 * time.Second
	defaultTimeout  = 5 * time.Second

	msgTimeout = "Request timed out. Please try again."
	msgNetwork = "Network error. Please check your connection and try again."
)

type (
	Client struct {
		baseURL    string
		httpClient *http.Client
		tokens     TokenStore
		production bool

		timeout         time.Duration
		loginTimeout    time.Duration
		registerTimeout time.Duration

		companies *CompanySearch
	}

	Option func(c *Client)
)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func WithTokenStore(ts TokenStore) Option { return func(c *Client) { c.tokens = ts } }

// WithTimeout sets the timeout of every call except login and register.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithLoginTimeouts overrides the login and register timeouts.
func WithLoginTimeouts(login, register time.Duration) Option {
	return func(c *Client) {
		c.loginTimeout = login
		c.registerTimeout = register
	}
}

// WithProduction makes the client refuse plain http endpoints for sensitive calls.
func WithProduction(production bool) Option { return func(c *Client) { c.production = production } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{},
		tokens:          NewMemoryTokenStore(),
		timeout:         defaultTimeout,
		loginTimeout:    loginTimeout,
		registerTimeout: registerTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.companies = newCompanySearch(c)
	return c
}

// NewFromConfig builds a client on the client section of conf.
func NewFromConfig(conf *core.Config, opts ...Option) *Client {
	base := []Option{WithTimeout(conf.Client.Timeout), WithProduction(conf.Env == "PROD")}
	return New(conf.Client.BaseURL, append(base, opts...)...)
}

func (c *Client) BaseURL() string { return c.baseURL }

// Response is the normalized answer of every API call.
type Response struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message,omitempty"`
	Token        string          `json:"token,omitempty"`
	RefreshToken string          `json:"refreshToken,omitempty"`
	User         json.RawMessage `json:"user,omitempty"`
	Role         string          `json:"role,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`

	StatusCode int  `json:"-"`
	TimedOut   bool `json:"-"`
}

// Decode unmarshals the top level key of the response body into v; an empty key decodes the whole body.
func (r Response) Decode(key string, v interface{}) error {
	if len(r.Data) == 0 {
		return errors.New("empty response body")
	}
	if key == "" {
		return json.Unmarshal(r.Data, v)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &fields); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	raw, ok := fields[key]
	if !ok {
		return errors.Errorf("response has no %q", key)
	}
	return json.Unmarshal(raw, v)
}

func failure(msg string) Response { return Response{Message: msg} }

type envelope struct {
	Success      *bool           `json:"success"`
	Message      string          `json:"message"`
	Error        json.RawMessage `json:"error"`
	Token        string          `json:"token"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         json.RawMessage `json:"user"`
	Role         string          `json:"role"`
}

func normalize(status int, body []byte) Response {
	resp := Response{StatusCode: status, Data: body}
	var env envelope
	_ = json.Unmarshal(body, &env)

	ok := status >= 200 && status < 300
	resp.Success = ok && (env.Success == nil || *env.Success)
	resp.Message = env.Message
	resp.Token = env.Token
	if resp.Token == "" {
		resp.Token = env.AccessToken
	}
	resp.RefreshToken = env.RefreshToken
	resp.User = env.User
	resp.Role = env.Role

	if !ok && resp.Message == "" {
		resp.Message = errorMessage(env.Error, body)
		if resp.Message == "" {
			resp.Message = http.StatusText(status)
		}
	}
	return resp
}

// errorMessage reads {"error": "msg"} or a {"field": "msg"} map.
func errorMessage(errField json.RawMessage, body []byte) string {
	var msg string
	if len(errField) > 0 && json.Unmarshal(errField, &msg) == nil {
		return msg
	}
	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return strings.Join(parts, "; ")
}

type call struct {
	method  string
	path    string
	body    interface{}
	timeout time.Duration
	auth    bool
	bearer  string // overrides the stored token
}

// do runs c, retrying once when the first attempt timed out.
func (c *Client) do(ctx context.Context, cl call) Response {
	if cl.timeout <= 0 {
		cl.timeout = c.timeout
	}
	var payload []byte
	if cl.body != nil {
		var err error
		if payload, err = json.Marshal(cl.body); err != nil {
			return failure(fmt.Sprintf("encoding request: %v", err))
		}
	}

	resp, err := c.attempt(ctx, cl, payload)
	if err != nil && isTimeout(err) && ctx.Err() == nil {
		resp, err = c.attempt(ctx, cl, payload)
	}
	if err != nil {
		if isTimeout(err) {
			return Response{Message: msgTimeout, TimedOut: true}
		}
		return failure(msgNetwork)
	}
	return resp
}

func (c *Client) attempt(ctx context.Context, cl call, payload []byte) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return Response{}, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := cl.bearer
	if token == "" && cl.auth {
		token = c.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer func() { _ = res.Body.Close() }()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, err
	}
	return normalize(res.StatusCode, data), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) get(ctx context.Context, path string) Response {
	return c.do(ctx, call{method: http.MethodGet, path: path, auth: true})
}

func (c *Client) send(ctx context.Context, method, path string, body interface{}) Response {
	return c.do(ctx, call{method: method, path: path, body: body, auth: true})
}
