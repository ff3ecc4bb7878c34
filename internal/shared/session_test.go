package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func commit(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rr, req, sess))
	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func reload(t *testing.T, sm *SessionManager, cookie *http.Cookie) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestSessionRoundTripKeepsUser(t *testing.T) {
	sm, _ := newTestManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	_, ok := sess.UserID()
	assert.False(t, ok)

	sess.SetUser("42")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "welcome"})
	cookie := commit(t, sm, sess)

	loaded := reload(t, sm, cookie)
	id, ok := loaded.UserID()
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	flash := loaded.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "welcome", flash.Message)
}

func TestUnknownCookieGetsFreshSession(t *testing.T) {
	sm, _ := newTestManager(t)
	sess := reload(t, sm, &http.Cookie{Name: sm.CookieName(), Value: "attacker-chosen"})
	assert.NotEqual(t, "attacker-chosen", sess.ID)
	assert.Empty(t, sess.User())
}

func TestRenewDropsPreviousRecord(t *testing.T) {
	sm, mr := newTestManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	cookie := commit(t, sm, sess)
	old := cookie.Value

	loaded := reload(t, sm, cookie)
	sm.Renew(loaded)
	loaded.SetUser("7")
	renewed := commit(t, sm, loaded)

	assert.NotEqual(t, old, renewed.Value)
	assert.False(t, mr.Exists("residence:session:"+old))
	assert.True(t, mr.Exists("residence:session:"+renewed.Value))
}

func TestDestroyClearsCookieAndRecord(t *testing.T) {
	sm, mr := newTestManager(t)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("9")
	cookie := commit(t, sm, sess)

	loaded := reload(t, sm, cookie)
	sm.Destroy(loaded)
	assert.Empty(t, loaded.User())
	cleared := commit(t, sm, loaded)
	assert.Equal(t, -1, cleared.MaxAge)
	assert.False(t, mr.Exists("residence:session:"+cookie.Value))
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("csrfsecret")
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	again, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, csrf.VerifyToken(context.Background(), sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), sess, "nope"), ErrCSRFTokenMismatch)

	rotated, err := csrf.RotateToken(context.Background(), sess)
	require.NoError(t, err)
	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), sess, token), ErrCSRFTokenMismatch)
	assert.NoError(t, csrf.VerifyToken(context.Background(), sess, rotated))
}
