package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	errorz "github.com/tedtop/fuelrelay/internal/errors"
)

const loginPage = `<html><body><form action="/Portal/Account/Login" method="post">
<input name="__RequestVerificationToken" type="hidden" value="csrf-123" />
<input name="Email" /><input name="Password" type="password" />
</form></body></html>`

// fakePortal emulates the ASP.NET login flow: GET login page with a hidden
// anti-forgery token, POST credentials, 302 to a landing page that sets an
// auth cookie lazily.
type fakePortal struct {
	password     string
	sawToken     string
	warmRequests []string
}

func (p *fakePortal) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "ASP.NET_SessionId", Value: "sess-1"})
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("POST /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		p.sawToken = r.PostFormValue("__RequestVerificationToken")
		if r.PostFormValue("Password") != p.password {
			w.Write([]byte(`<div class="validation-summary-errors">Invalid login attempt.</div>`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: ".AspNet.Cookies", Value: "auth-1"})
		w.Header().Set("Location", "/Portal")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("GET /Portal", func(w http.ResponseWriter, r *http.Request) {
		p.warmRequests = append(p.warmRequests, r.URL.Path)
		http.SetCookie(w, &http.Cookie{Name: "portal_ctx", Value: "ctx-1"})
		w.Write([]byte("<html>home</html>"))
	})
	mux.HandleFunc("GET /Portal/Dispatch/ListDispatch", func(w http.ResponseWriter, r *http.Request) {
		p.warmRequests = append(p.warmRequests, r.URL.Path)
		if r.Header.Get("Cookie") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("<html>dispatch list</html>"))
	})
	return mux
}

func TestLoginSuccessAccumulatesCookies(t *testing.T) {
	p := &fakePortal{password: "hunter2"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()

	a := NewAuthenticator(srv.URL, srv.Client(), zerolog.Nop())
	sess, err := a.Login(context.Background(), "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, sess.Authenticated())

	// CSRF token scraped from the page must be echoed in the POST.
	require.Equal(t, "csrf-123", p.sawToken)

	cookie := sess.CookieHeader()
	require.Contains(t, cookie, "ASP.NET_SessionId=sess-1")
	require.Contains(t, cookie, ".AspNet.Cookies=auth-1")
	require.Contains(t, cookie, "portal_ctx=ctx-1")

	// Redirect target and dispatch list are both visited to warm the
	// session.
	require.Equal(t, []string{"/Portal", "/Portal/Dispatch/ListDispatch"}, p.warmRequests)
}

func TestLoginInvalidCredentials(t *testing.T) {
	p := &fakePortal{password: "hunter2"}
	srv := httptest.NewServer(p.handler())
	defer srv.Close()

	a := NewAuthenticator(srv.URL, srv.Client(), zerolog.Nop())
	sess, err := a.Login(context.Background(), "ops@example.com", "wrong")
	require.ErrorIs(t, err, errorz.ErrInvalidCredentials)
	require.Nil(t, sess)
}

func TestLoginErrorMarkerWith200(t *testing.T) {
	// A 200 whose body contains "Invalid" is a rejected login even
	// without a structured error element.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("POST /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Invalid username or password</html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewAuthenticator(srv.URL, srv.Client(), zerolog.Nop())
	_, err := a.Login(context.Background(), "ops@example.com", "hunter2")
	require.ErrorIs(t, err, errorz.ErrInvalidCredentials)
}

func TestLoginPlain200WithoutMarkersIsSuccess(t *testing.T) {
	warmups := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("POST /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth", Value: "ok"})
		w.Write([]byte("<html>Welcome</html>"))
	})
	mux.HandleFunc("GET /Portal/Dispatch/ListDispatch", func(w http.ResponseWriter, r *http.Request) {
		warmups++
		w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewAuthenticator(srv.URL, srv.Client(), zerolog.Nop())
	sess, err := a.Login(context.Background(), "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, sess.Authenticated())

	// Without a redirect there is nothing to follow, so no warm-up
	// navigation happens either.
	require.Zero(t, warmups)
}

func TestLoginWarmupFailureNonFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("POST /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "auth", Value: "ok"})
		w.Header().Set("Location", "/Portal")
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewAuthenticator(srv.URL, srv.Client(), zerolog.Nop())
	sess, err := a.Login(context.Background(), "ops@example.com", "hunter2")
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	require.Contains(t, sess.CookieHeader(), "auth=ok")
}

func TestLoginMissingCredentials(t *testing.T) {
	a := NewAuthenticator("http://portal.invalid", nil, zerolog.Nop())
	_, err := a.Login(context.Background(), "", "")
	require.ErrorIs(t, err, errorz.ErrCredentialsRequired)
}

func TestLoginUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginPage))
	})
	mux.HandleFunc("POST /Portal/Account/Login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := NewAuthenticator(srv.URL, srv.Client(), zerolog.Nop())
	_, err := a.Login(context.Background(), "ops@example.com", "hunter2")
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusServiceUnavailable, upstream.Status)
}
