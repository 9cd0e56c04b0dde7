package portalclient

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	challengeAfter = 3
	maxCooldown    = 60 * time.Second
)

var (
	ErrCoolingDown       = errors.New("Too many failed attempts. Please wait before trying again.")
	ErrChallengeRequired = errors.New("Please solve the verification question.")
)

// Challenge is the arithmetic question asked after repeated failed logins.
type Challenge struct {
	A int
	B int
}

func (c Challenge) Question() string { return fmt.Sprintf("What is %d + %d?", c.A, c.B) }

func (c Challenge) Check(answer string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	return err == nil && n == c.A+c.B
}

// LoginGate throttles a login form: from the 3rd failure on, attempts wait out a growing
// cooldown (min(60, 2^(n-2)) seconds) and must answer a challenge. Timeouts are not failures.
type LoginGate struct {
	mu             sync.Mutex
	failedAttempts int
	cooldownUntil  time.Time
	challenge      *Challenge

	NowFunc  func() time.Time // mockable
	IntnFunc func(n int) int  // mockable
}

func NewLoginGate() *LoginGate {
	return &LoginGate{NowFunc: time.Now, IntnFunc: rand.Intn}
}

func (g *LoginGate) FailedAttempts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failedAttempts
}

// Challenge returns the active challenge, nil when none is required.
func (g *LoginGate) Challenge() *Challenge {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.challenge == nil {
		return nil
	}
	ch := *g.challenge
	return &ch
}

// Cooldown returns how long attempts are still blocked.
func (g *LoginGate) Cooldown() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if left := g.cooldownUntil.Sub(g.NowFunc()); left > 0 {
		return left
	}
	return 0
}

// Check tells whether an attempt may reach the server.
func (g *LoginGate) Check(answer string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.NowFunc().Before(g.cooldownUntil) {
		return ErrCoolingDown
	}
	if g.challenge != nil && !g.challenge.Check(answer) {
		return ErrChallengeRequired
	}
	return nil
}

func (g *LoginGate) Fail() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failedAttempts++
	if g.failedAttempts < challengeAfter {
		return
	}
	if g.challenge == nil { // keep the question being answered
		g.challenge = &Challenge{A: g.IntnFunc(10) + 1, B: g.IntnFunc(10) + 1}
	}
	secs := math.Min(maxCooldown.Seconds(), math.Pow(2, float64(g.failedAttempts-2)))
	g.cooldownUntil = g.NowFunc().Add(time.Duration(secs) * time.Second)
}

func (g *LoginGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failedAttempts = 0
	g.cooldownUntil = time.Time{}
	g.challenge = nil
}

// Login runs a gated login: blocked attempts return an error without contacting the server.
func (g *LoginGate) Login(ctx context.Context, c *Client, email, password, answer string) (Response, error) {
	if err := g.Check(answer); err != nil {
		return Response{}, err
	}
	resp := c.Login(ctx, email, password)
	switch {
	case resp.Success:
		g.Reset()
	case !resp.TimedOut:
		g.Fail()
	}
	return resp, nil
}
