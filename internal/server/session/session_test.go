package session

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/gopherwallet/internal/common"
)

var secret = []byte("test-secret")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*Manager, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewManager(secret, time.Hour, WithClock(c.Now), WithRand(rand.New(rand.NewPCG(1, 2)))), c
}

func TestOpen_NewAnonymousSession(t *testing.T) {
	m, _ := newTestManager(t)

	sc, err := m.Open("")
	require.NoError(t, err)
	assert.NotEmpty(t, sc.ID)
	assert.NotEmpty(t, sc.Token)
	assert.False(t, sc.Authenticated())

	again, err := m.Open(sc.Token)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, again.ID)
	assert.Empty(t, again.Token, "known session must not reissue a token")
}

func TestOpen_InvalidTokenStartsFresh(t *testing.T) {
	m, _ := newTestManager(t)

	sc, err := m.Open("garbage")
	require.NoError(t, err)
	assert.NotEmpty(t, sc.Token)
	assert.Zero(t, m.Len())
}

func TestOpen_CookielessRequestsStoreNothing(t *testing.T) {
	m, _ := newTestManager(t)

	for i := 0; i < 10_000; i++ {
		sc, err := m.Open("")
		require.NoError(t, err)
		require.NotEmpty(t, sc.Token)
	}
	assert.Zero(t, m.Len())
}

func TestAnonymousSession_StoredOnFirstFlash(t *testing.T) {
	m, _ := newTestManager(t)
	sc, err := m.Open("")
	require.NoError(t, err)

	m.AddFlash(sc.ID, "hello")
	assert.Equal(t, 1, m.Len())

	again, err := m.Open(sc.Token)
	require.NoError(t, err)
	assert.Equal(t, sc.ID, again.ID)
	assert.Empty(t, again.Token)

	assert.Equal(t, []string{"hello"}, m.PopFlashes(again.ID))
	assert.Zero(t, m.Len(), "emptied anonymous session must be dropped")
}

func TestAnonymousSession_ShortLifetime(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(secret, 24*time.Hour, WithClock(c.Now), WithAnonymousTTL(time.Minute))

	sc, _ := m.Open("")
	_, err := m.AssignReceivingAccount(sc.ID)
	require.NoError(t, err)
	user, _ := m.Start("a@x.com")
	require.Equal(t, 2, m.Len())

	c.Advance(2 * time.Minute)
	assert.Nil(t, m.PopFlashes(sc.ID))
	assert.Equal(t, 1, m.Len())
	_, ok := m.Current(user.ID)
	assert.True(t, ok)
}

func TestAnonymousSession_Limit(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(secret, time.Hour, WithClock(c.Now), WithAnonymousLimit(10, rate.Inf, 1))

	for i := 0; i < 1000; i++ {
		sc, _ := m.Open("")
		m.AddFlash(sc.ID, "x")
	}
	assert.Equal(t, 10, m.Len())

	sc, _ := m.Open("")
	_, err := m.AssignReceivingAccount(sc.ID)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	user, err := m.Start("a@x.com")
	require.NoError(t, err)
	_, err = m.AssignReceivingAccount(user.ID)
	assert.NoError(t, err, "logged-in sessions are not subject to the anonymous limit")
}

func TestAnonymousSession_RateLimited(t *testing.T) {
	c := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(secret, time.Hour, WithClock(c.Now), WithAnonymousLimit(1000, rate.Limit(1), 5))

	for i := 0; i < 50; i++ {
		sc, _ := m.Open("")
		m.AddFlash(sc.ID, "x")
	}
	assert.Equal(t, 5, m.Len())

	c.Advance(3 * time.Second)
	for i := 0; i < 50; i++ {
		sc, _ := m.Open("")
		m.AddFlash(sc.ID, "x")
	}
	assert.Equal(t, 8, m.Len())
}

func TestStartCurrentEnd(t *testing.T) {
	m, _ := newTestManager(t)

	sc, err := m.Start("a@x.com")
	require.NoError(t, err)
	assert.True(t, sc.Authenticated())

	id, ok := m.Current(sc.ID)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", id)

	reopened, err := m.Open(sc.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", reopened.Identity)

	m.End(sc.ID)
	_, ok = m.Current(sc.ID)
	assert.False(t, ok)

	after, err := m.Open(sc.Token)
	require.NoError(t, err)
	assert.NotEqual(t, sc.ID, after.ID)
	assert.False(t, after.Authenticated())
}

func TestCurrent_AnonymousAndUnknown(t *testing.T) {
	m, _ := newTestManager(t)
	sc, _ := m.Open("")

	_, ok := m.Current(sc.ID)
	assert.False(t, ok)
	_, ok = m.Current("missing")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	m, c := newTestManager(t)
	sc, err := m.Start("a@x.com")
	require.NoError(t, err)

	c.Advance(time.Hour)

	_, ok := m.Current(sc.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	m, c := newTestManager(t)
	for i := 0; i < 5; i++ {
		_, err := m.Start("user" + strconv.Itoa(i) + "@x.com")
		require.NoError(t, err)
	}
	c.Advance(2 * time.Hour)

	_, err := m.Start("fresh@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestAssignReceivingAccount_StablePerSession(t *testing.T) {
	m, _ := newTestManager(t)
	sc, _ := m.Start("a@x.com")

	first, err := m.AssignReceivingAccount(sc.ID)
	require.NoError(t, err)
	second, err := m.AssignReceivingAccount(sc.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first.Number, 10)
	n, err := strconv.ParseInt(first.Number, 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1_000_000_000))
	assert.LessOrEqual(t, n, int64(9_999_999_999))
	assert.True(t, slices.Contains(Banks, first.Bank))
}

func TestAssignReceivingAccount_RangeOverManySessions(t *testing.T) {
	m, _ := newTestManager(t)
	for i := 0; i < 200; i++ {
		sc, _ := m.Open("")
		acc, err := m.AssignReceivingAccount(sc.ID)
		require.NoError(t, err)
		require.Len(t, acc.Number, 10)
		require.NotEqual(t, byte('0'), acc.Number[0])
		require.True(t, slices.Contains(Banks, acc.Bank))
	}
}

func TestAssignReceivingAccount_UnknownSession(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.AssignReceivingAccount("missing")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestFlashes(t *testing.T) {
	m, _ := newTestManager(t)
	sc, _ := m.Open("")

	m.AddFlash(sc.ID, "one")
	m.AddFlash(sc.ID, "two")

	assert.Equal(t, []string{"one", "two"}, m.PopFlashes(sc.ID))
	assert.Empty(t, m.PopFlashes(sc.ID))

	m.AddFlash("missing", "dropped")
	assert.Nil(t, m.PopFlashes("missing"))
}

func TestConcurrentAccess(t *testing.T) {
	m, _ := newTestManager(t)
	sc, _ := m.Start("a@x.com")

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			acc, err := m.AssignReceivingAccount(sc.ID)
			if err == nil {
				results[i] = acc.Number
			}
			m.AddFlash(sc.ID, "x")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Len(t, m.PopFlashes(sc.ID), 32)
}
