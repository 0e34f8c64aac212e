package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gopherwallet/internal/logging"
	"github.com/dmitrijs2005/gopherwallet/internal/server/gateway"
	"github.com/dmitrijs2005/gopherwallet/internal/server/models"
	"github.com/dmitrijs2005/gopherwallet/internal/server/repositories/repomanager"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeGateway records calls and answers from canned values.
type fakeGateway struct {
	mu sync.Mutex

	initCalls   atomic.Int32
	verifyCalls atomic.Int32

	nextRef   string
	initErr   error
	lastMinor int64
	lastEmail string
	lastCB    string
	verifyOut *gateway.Verification
	verifyErr error
}

func (f *fakeGateway) Initialize(_ context.Context, email string, amountMinor int64, callbackURL string) (*gateway.Initialization, error) {
	f.initCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.initErr != nil {
		return nil, f.initErr
	}
	f.lastEmail, f.lastMinor, f.lastCB = email, amountMinor, callbackURL
	return &gateway.Initialization{Reference: f.nextRef, AuthorizationURL: "https://pay.example/" + f.nextRef}, nil
}

func (f *fakeGateway) Verify(_ context.Context, reference string) (*gateway.Verification, error) {
	f.verifyCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	v := *f.verifyOut
	return &v, nil
}

type fakeArchive struct {
	mu     sync.Mutex
	stored []models.Receipt
	err    error
}

func (f *fakeArchive) Store(_ context.Context, r *models.Receipt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, *r)
	return "receipts/" + r.Reference + ".json", nil
}

func registered(t *testing.T, m repomanager.RepositoryManager, emails ...string) *AccountService {
	t.Helper()
	accounts := NewAccountService(m, discardLogger())
	for _, e := range emails {
		_, err := accounts.Register(context.Background(), "user", e, "secret")
		require.NoError(t, err)
	}
	return accounts
}
