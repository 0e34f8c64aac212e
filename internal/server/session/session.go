// Package session keeps server-side browser sessions. The browser holds only
// a signed token naming its session; identity, the receiving account and
// flash messages live here.
//
// Anonymous sessions cost nothing until something is written to them: Open
// hands out a signed id without storing it, and the first AddFlash or
// AssignReceivingAccount stores it with a short lifetime. Stored anonymous
// sessions are capped and their creation is rate limited.
package session

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
	"github.com/dmitrijs2005/gopherwallet/internal/server/auth"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
)

// Banks is the fixed set of labels a receiving account may carry.
var Banks = []string{"GTBank", "Access Bank", "UBA", "Opay", "Moniepoint"}

const (
	minAccountNumber  = 1_000_000_000
	accountNumberSpan = 9_000_000_000
	sweepInterval     = time.Minute

	anonymousPrefix = "anon-"

	DefaultAnonymousTTL   = 30 * time.Minute
	DefaultAnonymousLimit = 10_000
	DefaultAnonymousRate  = rate.Limit(50)
	DefaultAnonymousBurst = 500
)

// Context is the per-request view of a session handed to HTTP handlers.
// Token is set only when a new token must be sent to the browser.
type Context struct {
	ID       string
	Identity string
	Token    string
}

// Authenticated reports whether the session belongs to a logged-in user.
func (c *Context) Authenticated() bool { return c != nil && c.Identity != "" }

type session struct {
	identity  string
	account   *models.ReceivingAccount
	flashes   []string
	expiresAt time.Time
}

// Manager owns all sessions of the process.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*session
	secret    []byte
	ttl       time.Duration
	rnd       *rand.Rand
	now       func() time.Time
	lastSweep time.Time

	anonTTL     time.Duration
	anonLimit   int
	anonStored  int
	anonLimiter *rate.Limiter
}

type Option func(*Manager)

// WithRand replaces the source used for receiving account numbers and banks.
func WithRand(r *rand.Rand) Option { return func(m *Manager) { m.rnd = r } }

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithAnonymousTTL sets the lifetime of anonymous sessions and their tokens.
func WithAnonymousTTL(d time.Duration) Option { return func(m *Manager) { m.anonTTL = d } }

// WithAnonymousLimit caps how many anonymous sessions are stored at once and
// how fast new ones may be stored.
func WithAnonymousLimit(max int, r rate.Limit, burst int) Option {
	return func(m *Manager) {
		m.anonLimit = max
		m.anonLimiter = rate.NewLimiter(r, burst)
	}
}

func NewManager(secret []byte, ttl time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*session),
		secret:      secret,
		ttl:         ttl,
		rnd:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:         time.Now,
		anonTTL:     DefaultAnonymousTTL,
		anonLimit:   DefaultAnonymousLimit,
		anonLimiter: rate.NewLimiter(DefaultAnonymousRate, DefaultAnonymousBurst),
	}
	for _, o := range opts {
		o(m)
	}
	m.lastSweep = m.now()
	return m
}

// Open resolves token to a session. A missing, invalid or expired token
// yields a fresh anonymous session whose token is returned in Context.Token.
// Anonymous sessions are not stored until written to.
func (m *Manager) Open(token string) (*Context, error) {
	if token != "" {
		if id, err := auth.GetSessionIDFromToken(token, m.secret); err == nil {
			m.mu.Lock()
			s, ok := m.liveLocked(id)
			var identity string
			if ok {
				identity = s.identity
			}
			m.mu.Unlock()
			if ok || isAnonymous(id) {
				return &Context{ID: id, Identity: identity}, nil
			}
		}
	}

	id := anonymousPrefix + uuid.NewString()
	token, err := auth.GenerateToken(id, m.secret, m.anonTTL)
	if err != nil {
		return nil, err
	}
	return &Context{ID: id, Token: token}, nil
}

// Start creates a new session bound to identity. Callers end the previous
// session so an identity never inherits a pre-login session id.
func (m *Manager) Start(identity string) (*Context, error) {
	id := uuid.NewString()
	token, err := auth.GenerateToken(id, m.secret, m.ttl)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.maybeSweepLocked(now)
	m.sessions[id] = &session{identity: identity, expiresAt: now.Add(m.ttl)}
	return &Context{ID: id, Identity: identity, Token: token}, nil
}

func isAnonymous(id string) bool { return strings.HasPrefix(id, anonymousPrefix) }

// writableLocked returns the stored session, storing an anonymous one on
// first write. It fails when the anonymous quota is exhausted.
func (m *Manager) writableLocked(id string) (*session, bool) {
	if s, ok := m.liveLocked(id); ok {
		return s, true
	}
	if !isAnonymous(id) {
		return nil, false
	}

	now := m.now()
	m.maybeSweepLocked(now)
	if m.anonStored >= m.anonLimit {
		m.sweepLocked(now)
		if m.anonStored >= m.anonLimit {
			return nil, false
		}
	}
	if !m.anonLimiter.AllowN(now, 1) {
		return nil, false
	}

	s := &session{expiresAt: now.Add(m.anonTTL)}
	m.sessions[id] = s
	m.anonStored++
	return s, true
}

// Current returns the identity bound to the session, if any.
func (m *Manager) Current(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.liveLocked(id)
	if !ok || s.identity == "" {
		return "", false
	}
	return s.identity, true
}

// AssignReceivingAccount returns the session's receiving account, generating
// it on first use. Later calls return the same value until the session ends.
func (m *Manager) AssignReceivingAccount(id string) (models.ReceivingAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.writableLocked(id)
	if !ok {
		return models.ReceivingAccount{}, common.ErrUnauthenticated
	}
	if s.account == nil {
		s.account = &models.ReceivingAccount{
			Number: strconv.FormatInt(minAccountNumber+m.rnd.Int64N(accountNumberSpan), 10),
			Bank:   Banks[m.rnd.IntN(len(Banks))],
		}
	}
	return *s.account, nil
}

// End discards the session and everything stored in it.
func (m *Manager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(id)
}

// AddFlash queues a one-time message for the next view of the session.
func (m *Manager) AddFlash(id, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.writableLocked(id); ok {
		s.flashes = append(s.flashes, msg)
	}
}

// PopFlashes returns and clears the queued messages. An anonymous session
// left with nothing in it is dropped.
func (m *Manager) PopFlashes(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.liveLocked(id)
	if !ok {
		return nil
	}
	out := s.flashes
	s.flashes = nil
	if isAnonymous(id) && s.account == nil {
		m.deleteLocked(id)
	}
	return out
}

// Len reports the number of stored sessions, expired ones included.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) liveLocked(id string) (*session, bool) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	if !m.now().Before(s.expiresAt) {
		m.deleteLocked(id)
		return nil, false
	}
	return s, true
}

func (m *Manager) deleteLocked(id string) {
	s, ok := m.sessions[id]
	if !ok {
		return
	}
	if isAnonymous(id) {
		m.anonStored--
	}
	delete(m.sessions, id)
}

func (m *Manager) maybeSweepLocked(now time.Time) {
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
	}
}

func (m *Manager) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if !now.Before(s.expiresAt) {
			m.deleteLocked(id)
		}
	}
	m.lastSweep = now
}
