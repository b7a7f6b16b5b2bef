package login

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poltys-apps/dcare-pager-gw/pkg/escalation"
	"github.com/poltys-apps/dcare-pager-gw/pkg/serverapi"
)

type fakeFetcher struct {
	calls int
	pins  []string
	names []string
	resp  *serverapi.EscalateConfig
	err   error
}

func (f *fakeFetcher) EscalateConfig(_ context.Context, _, pin, name string) (*serverapi.EscalateConfig, error) {
	f.calls++
	f.pins = append(f.pins, pin)
	f.names = append(f.names, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func validConfig() *serverapi.EscalateConfig {
	return &serverapi.EscalateConfig{
		SignIns:  []serverapi.SignIn{{Username: "nurse.jane"}},
		Profiles: map[string]string{"Night": "Night shift", "Ward A": "Ward A"},
	}
}

func newTestSession(f Fetcher) (*Session, *escalation.Resolver, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	r := escalation.NewResolver()
	s := NewSession(f, r, Config{Now: clock.Now})
	return s, r, clock
}

func TestSyncSuccess(t *testing.T) {
	f := &fakeFetcher{resp: validConfig()}
	s, r, _ := newTestSession(f)

	res, changed, err := s.Sync(context.Background(), "pager", "1234", "Night desk")
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, "nurse.jane", res.LoginName)
	assert.Equal(t, []string{"Night", "Ward A"}, res.Profiles.Names())
	assert.Equal(t, "Night shift", res.Descriptions["Night"])
	assert.Equal(t, []string{"Night", "Ward A"}, r.Profiles().Names())
	assert.Equal(t, []string{"Night desk"}, f.names)
	assert.Same(t, res, s.Last())
}

func TestSyncInterval(t *testing.T) {
	f := &fakeFetcher{resp: validConfig()}
	s, _, clock := newTestSession(f)
	ctx := context.Background()

	_, _, err := s.Sync(ctx, "pager", "1234", "n")
	require.NoError(t, err)

	clock.Advance(DefaultRefreshInterval)
	_, changed, err := s.Sync(ctx, "pager", "1234", "n")
	require.NoError(t, err)
	assert.False(t, changed, "exactly at the interval is still fresh")
	assert.Equal(t, 1, f.calls)

	clock.Advance(time.Second)
	assert.True(t, s.Due("1234"))
	_, changed, err = s.Sync(ctx, "pager", "1234", "n")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, f.calls)
}

func TestSyncPINChange(t *testing.T) {
	f := &fakeFetcher{resp: validConfig()}
	s, _, _ := newTestSession(f)
	ctx := context.Background()

	s.Sync(ctx, "pager", "1234", "n")
	assert.False(t, s.Due("1234"))
	assert.True(t, s.Due("9999"))

	_, changed, err := s.Sync(ctx, "pager", "9999", "n")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"1234", "9999"}, f.pins)
}

func TestSyncEmptyPIN(t *testing.T) {
	f := &fakeFetcher{resp: validConfig()}
	s, _, _ := newTestSession(f)

	res, changed, err := s.Sync(context.Background(), "pager", "", "n")
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.Nil(t, res)
	assert.Equal(t, 0, f.calls)
}

func TestSyncInvalidPINKeepsProfiles(t *testing.T) {
	f := &fakeFetcher{resp: validConfig()}
	s, r, _ := newTestSession(f)
	ctx := context.Background()

	s.Sync(ctx, "pager", "1234", "n")

	f.resp = &serverapi.EscalateConfig{Profiles: map[string]string{"Other": ""}}
	_, changed, err := s.Sync(ctx, "pager", "0000", "n")
	assert.ErrorIs(t, err, ErrInvalidPIN)
	assert.False(t, changed)
	assert.Equal(t, []string{"Night", "Ward A"}, r.Profiles().Names())
}

func TestSyncFailureWaitsForNextInterval(t *testing.T) {
	f := &fakeFetcher{err: errors.New("connection refused")}
	s, r, clock := newTestSession(f)
	ctx := context.Background()

	_, changed, err := s.Sync(ctx, "pager", "1234", "n")
	assert.Error(t, err)
	assert.False(t, changed)
	assert.Empty(t, r.Profiles())

	// Not retried early.
	clock.Advance(time.Minute)
	_, _, err = s.Sync(ctx, "pager", "1234", "n")
	assert.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	f.err = nil
	f.resp = validConfig()
	clock.Advance(DefaultRefreshInterval)
	_, changed, err = s.Sync(ctx, "pager", "1234", "n")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, f.calls)
}
