package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calhighlight/internal/calendar"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(testSecret, true, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

// roundTrip saves d and returns a request carrying the resulting cookie.
func roundTrip(t *testing.T, s *Store, d Data) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(rec, d))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func responseCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

type fakeRefresher struct {
	ts        calendar.TokenSet
	err       error
	calls     int
	got       string
	forgotten []string
}

func (f *fakeRefresher) Forget(token string) {
	f.forgotten = append(f.forgotten, token)
}

func (f *fakeRefresher) Refresh(_ context.Context, rt string) (calendar.TokenSet, error) {
	f.calls++
	f.got = rt
	return f.ts, f.err
}

func TestNewStore_ShortSecret(t *testing.T) {
	_, err := NewStore("too-short", false, nil)
	assert.ErrorIs(t, err, ErrSecretTooShort)
}

func TestStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	want := Data{AccessToken: "at", RefreshToken: "rt", ExpiryDate: 1700000000000, IsLoggedIn: true}

	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(rec, want))
	c := responseCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(MaxAge/time.Second), c.MaxAge)
	assert.NotContains(t, c.Value, "accessToken")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Equal(t, want, s.Load(req))
}

func TestStore_LoadRejectsTampering(t *testing.T) {
	s := newTestStore(t)
	req := roundTrip(t, s, Data{AccessToken: "at", IsLoggedIn: true})
	c, err := req.Cookie(CookieName)
	require.NoError(t, err)

	tests := []struct {
		name  string
		value string
	}{
		{"flipped byte", flip(c.Value)},
		{"not base64", "%%%"},
		{"too short", "AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.value})
			assert.Equal(t, Data{}, s.Load(r))
		})
	}

	t.Run("other secret", func(t *testing.T) {
		other, err := NewStore(strings.Repeat("z", MinSecretLength), false, nil)
		require.NoError(t, err)
		assert.Equal(t, Data{}, other.Load(req))
	})
}

func flip(v string) string {
	b := []byte(v)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestStore_Destroy(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestStore(t).Destroy(rec)
	c := responseCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.Less(t, c.MaxAge, 0)
}

func TestValidAccessToken(t *testing.T) {
	fresh := fixedNow.Add(time.Hour).UnixMilli()
	soon := fixedNow.Add(4 * time.Minute).UnixMilli()

	t.Run("not logged in", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.ValidAccessToken(context.Background(), httptest.NewRecorder(),
			httptest.NewRequest(http.MethodGet, "/", nil), &fakeRefresher{})
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.Equal(t, "Not logged in", err.Error())
	})

	t.Run("valid token", func(t *testing.T) {
		s := newTestStore(t)
		ref := &fakeRefresher{}
		req := roundTrip(t, s, Data{AccessToken: "at", RefreshToken: "rt", ExpiryDate: fresh, IsLoggedIn: true})

		tok, err := s.ValidAccessToken(context.Background(), httptest.NewRecorder(), req, ref)
		require.NoError(t, err)
		assert.Equal(t, "at", tok)
		assert.Zero(t, ref.calls)
		assert.Empty(t, ref.forgotten)
	})

	t.Run("refreshes near expiry", func(t *testing.T) {
		s := newTestStore(t)
		ref := &fakeRefresher{ts: calendar.TokenSet{AccessToken: "new", Expiry: fixedNow.Add(time.Hour)}}
		req := roundTrip(t, s, Data{AccessToken: "old", RefreshToken: "rt", ExpiryDate: soon, IsLoggedIn: true})

		rec := httptest.NewRecorder()
		tok, err := s.ValidAccessToken(context.Background(), rec, req, ref)
		require.NoError(t, err)
		assert.Equal(t, "new", tok)
		assert.Equal(t, 1, ref.calls)
		assert.Equal(t, "rt", ref.got)
		assert.Equal(t, []string{"old"}, ref.forgotten, "the rotated token's cached state is dropped")

		next := httptest.NewRequest(http.MethodGet, "/", nil)
		next.AddCookie(responseCookie(t, rec))
		saved := s.Load(next)
		assert.Equal(t, "new", saved.AccessToken)
		assert.Equal(t, "rt", saved.RefreshToken)
		assert.Equal(t, fixedNow.Add(time.Hour).UnixMilli(), saved.ExpiryDate)
	})

	t.Run("refresh failure destroys session", func(t *testing.T) {
		s := newTestStore(t)
		ref := &fakeRefresher{err: errors.New("invalid_grant")}
		req := roundTrip(t, s, Data{AccessToken: "old", RefreshToken: "rt", ExpiryDate: soon, IsLoggedIn: true})

		rec := httptest.NewRecorder()
		_, err := s.ValidAccessToken(context.Background(), rec, req, ref)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.Equal(t, 1, ref.calls)
		assert.Equal(t, []string{"old"}, ref.forgotten)
		assert.Less(t, responseCookie(t, rec).MaxAge, 0)
	})

	t.Run("expired without refresh token", func(t *testing.T) {
		s := newTestStore(t)
		ref := &fakeRefresher{}
		req := roundTrip(t, s, Data{AccessToken: "old", ExpiryDate: soon, IsLoggedIn: true})

		_, err := s.ValidAccessToken(context.Background(), httptest.NewRecorder(), req, ref)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.Zero(t, ref.calls)
		assert.Equal(t, []string{"old"}, ref.forgotten)
	})
}

func TestFromTokens(t *testing.T) {
	exp := time.UnixMilli(1700000000000)
	d := FromTokens(calendar.TokenSet{AccessToken: "a", RefreshToken: "r", Expiry: exp})
	assert.Equal(t, Data{AccessToken: "a", RefreshToken: "r", ExpiryDate: 1700000000000, IsLoggedIn: true}, d)
	assert.True(t, d.Expiry().Equal(exp))
}

func TestStore_State(t *testing.T) {
	s := newTestStore(t)

	rec := httptest.NewRecorder()
	s.SaveState(rec, "abc")
	var state *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == StateCookieName {
			state = c
		}
	}
	require.NotNil(t, state)
	assert.Equal(t, "/auth", state.Path)
	assert.True(t, state.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	req.AddCookie(state)
	cleared := httptest.NewRecorder()
	assert.Equal(t, "abc", s.ConsumeState(cleared, req))
	require.Len(t, cleared.Result().Cookies(), 1)
	assert.Less(t, cleared.Result().Cookies()[0].MaxAge, 0)

	assert.Empty(t, s.ConsumeState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil)))
}
