package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/egcartridge/storefront/internal/auth"
	"github.com/egcartridge/storefront/internal/domain"
	"github.com/egcartridge/storefront/internal/notify"
)

type fakeSessions struct {
	session   auth.Session
	logoutErr error
	logouts   int
}

func (f *fakeSessions) Session(context.Context) auth.Session { return f.session }

func (f *fakeSessions) Logout(context.Context) error {
	f.logouts++
	return f.logoutErr
}

type fakeGuest struct {
	cleared int
	err     error
}

func (f *fakeGuest) Clear(context.Context) error {
	f.cleared++
	return f.err
}

func TestNav(t *testing.T) {
	s := NewShell(&fakeSessions{}, &fakeGuest{}, notify.NewRecorder(5, nil), zap.NewNop())

	items := s.Nav("/admin/orders/42")
	require.Len(t, items, 5)
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.Key)
		assert.Equal(t, it.Key == "orders", it.Active, it.Key)
	}
	assert.Equal(t, []string{"dashboard", "products", "orders", "customers", "settings"}, keys)

	items = s.Nav("/admin")
	assert.True(t, items[0].Active)
	assert.False(t, items[1].Active)

	for _, it := range s.Nav("/elsewhere") {
		assert.False(t, it.Active)
	}
	assert.False(t, s.Nav("/admin/orders")[0].Active)
}

func TestSession(t *testing.T) {
	sessions := &fakeSessions{session: auth.Session{Authenticated: true, Kind: domain.CredentialUser, Username: "ram"}}
	s := NewShell(sessions, &fakeGuest{}, notify.NewRecorder(5, nil), zap.NewNop())

	assert.Equal(t, "ram", s.Session(context.Background()).Username)
}

func TestLogout_ClearsGuestCart(t *testing.T) {
	sessions := &fakeSessions{}
	guest := &fakeGuest{err: errors.New("disk full")}
	notes := notify.NewRecorder(5, nil)
	s := NewShell(sessions, guest, notes, zap.NewNop())

	require.NoError(t, s.Logout(context.Background()))
	assert.Equal(t, 1, sessions.logouts)
	assert.Equal(t, 1, guest.cleared)
	assert.Equal(t, notify.LevelSuccess, notes.Drain()[0].Level)
}

func TestLogout_StoreFailure(t *testing.T) {
	sessions := &fakeSessions{logoutErr: errors.New("store down")}
	guest := &fakeGuest{}
	notes := notify.NewRecorder(5, nil)
	s := NewShell(sessions, guest, notes, zap.NewNop())

	assert.Error(t, s.Logout(context.Background()))
	assert.Zero(t, guest.cleared)
	assert.Equal(t, notify.LevelError, notes.Drain()[0].Level)
}
