package handler

import (
    "context"
    "database/sql"
    "sync"
    "time"

    "github.com/stretchr/testify/mock"

    "github.com/khIbrahim/popcornon/internal/model"
    "github.com/khIbrahim/popcornon/internal/repository"
)

/* -------- users -------- */

type fakeUsers struct {
    byEmail map[string]model.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
    u, ok := f.byEmail[email]
    if !ok {
        return model.User{}, sql.ErrNoRows
    }
    return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    for _, u := range f.byEmail {
        if u.ID == id {
            return u, nil
        }
    }
    return model.User{}, sql.ErrNoRows
}

/* -------- refresh tokens -------- */

type fakeSessions struct {
    mu      sync.Mutex
    tokens  map[string]model.RefreshToken
    revoked map[string]bool
}

func newFakeSessions() *fakeSessions {
    return &fakeSessions{tokens: map[string]model.RefreshToken{}, revoked: map[string]bool{}}
}

func (f *fakeSessions) Store(_ context.Context, userID uint64, hash string, exp time.Time) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.tokens[hash] = model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
    return nil
}

func (f *fakeSessions) Lookup(_ context.Context, hash string) (model.RefreshToken, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    t, ok := f.tokens[hash]
    if !ok || f.revoked[hash] {
        return model.RefreshToken{}, repository.ErrTokenInvalid
    }
    return t, nil
}

func (f *fakeSessions) Revoke(_ context.Context, hash string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.revoked[hash] = true
    return nil
}

/* -------- partner requests -------- */

type MockRequests struct {
    mock.Mock
}

func (m *MockRequests) Create(ctx context.Context, a *model.Activity) error {
    args := m.Called(ctx, a)
    if args.Error(0) == nil {
        a.ID = 200
        a.Status = model.StatusPending
    }
    return args.Error(0)
}

func (m *MockRequests) Decide(ctx context.Context, id uint64, status model.RequestStatus, adminID uint64) (*model.Activity, error) {
    args := m.Called(ctx, id, status, adminID)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).(*model.Activity), args.Error(1)
}

/* -------- cinemas -------- */

type MockCinemas struct {
    mock.Mock
}

func (m *MockCinemas) ListActive(ctx context.Context, city string) ([]*model.Cinema, error) {
    args := m.Called(ctx, city)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).([]*model.Cinema), args.Error(1)
}

func (m *MockCinemas) Archive(ctx context.Context, id uint64) error {
    return m.Called(ctx, id).Error(0)
}

type countingPurger struct{ calls int }

func (p *countingPurger) Purge(context.Context) (int, error) {
    p.calls++
    return 1, nil
}
