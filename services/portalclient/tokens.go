package portalclient

import "sync"

// Legacy storage keys; a token is looked up in this order.
const (
	KeyAuthToken    = "authToken"
	KeyAccessToken  = "accessToken"
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
)

var tokenKeys = []string{KeyAuthToken, KeyAccessToken, KeyToken}

// TokenStore keeps the tokens of the signed-in user.
type TokenStore interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

type MemoryTokenStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ TokenStore = (*MemoryTokenStore)(nil)

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{values: make(map[string]string)}
}

func (s *MemoryTokenStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *MemoryTokenStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryTokenStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Token returns the first token found under the legacy keys.
func (c *Client) Token() string {
	for _, key := range tokenKeys {
		if tok := c.tokens.Get(key); tok != "" {
			return tok
		}
	}
	return ""
}

// SetTokens stores an access token and, when not empty, a refresh token.
func (c *Client) SetTokens(token, refresh string) {
	c.tokens.Set(KeyAuthToken, token)
	c.tokens.Set(KeyAccessToken, token)
	if refresh != "" {
		c.tokens.Set(KeyRefreshToken, refresh)
	}
}

// Logout forgets every stored token.
func (c *Client) Logout() {
	for _, key := range append(tokenKeys, KeyRefreshToken) {
		c.tokens.Delete(key)
	}
}
