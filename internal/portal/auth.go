package portal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	errorz "github.com/tedtop/fuelrelay/internal/errors"
)

const (
	loginPath        = "/Portal/Account/Login"
	dispatchListPath = "/Portal/Dispatch/ListDispatch?view=tab"

	browserAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var csrfTokenRe = regexp.MustCompile(`(?i)<input[^>]*name="__RequestVerificationToken"[^>]*value="([^"]*)"[^>]*>`)

// failureMarkers are the substrings the portal's login form renders when
// credentials are rejected. Scanning for them is a heuristic; it is kept
// behind loginFailed so it can be swapped for a structured signal if the
// portal ever exposes one.
var failureMarkers = []string{
	"validation-summary-errors",
	"login-error",
	"Invalid",
	"incorrect",
	"locked",
	"disabled",
}

func loginFailed(body string) bool {
	for _, marker := range failureMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Authenticator drives the portal's form-based login handshake and yields
// an authenticated Session.
type Authenticator struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewAuthenticator builds an authenticator against baseURL. The supplied
// client must not follow redirects automatically; a nil client gets a
// default with redirect-following disabled.
func NewAuthenticator(baseURL string, client *http.Client, log zerolog.Logger) *Authenticator {
	if client == nil {
		client = &http.Client{}
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Authenticator{baseURL: strings.TrimRight(baseURL, "/"), client: client, log: log}
}

// Login performs the GET-scrape-POST-redirect sequence against the portal.
// It returns an authenticated Session, or errorz.ErrInvalidCredentials when
// the portal rejects the credentials.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, errorz.ErrCredentialsRequired
	}

	sess := NewSession()

	// Step 1: fetch the login page for initial cookies and the
	// anti-forgery token.
	pageBody, err := a.getLoginPage(ctx, sess)
	if err != nil {
		return nil, errors.Join(errorz.ErrPortalUnreachable, err)
	}

	csrfToken := ""
	if m := csrfTokenRe.FindStringSubmatch(pageBody); m != nil {
		csrfToken = m[1]
		a.log.Debug().Msg("anti-forgery token found on login page")
	}

	// Step 2: POST the credentials with accumulated cookies attached.
	form := url.Values{}
	form.Set("Email", username)
	form.Set("Password", password)
	if csrfToken != "" {
		form.Set("__RequestVerificationToken", csrfToken)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", a.baseURL+loginPath)
	req.Header.Set("Origin", a.baseURL)
	if cookie := sess.CookieHeader(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.Join(errorz.ErrPortalUnreachable, err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, errors.Join(errorz.ErrPortalUnreachable, err)
	}

	sess.Merge(resp.Header.Values("Set-Cookie"))

	switch {
	case resp.StatusCode == http.StatusFound:
		// redirect is the normal success signal
	case resp.StatusCode == http.StatusOK && !loginFailed(body):
		// no redirect and no recognizable error marker; treated as
		// success, matching the portal's observed behavior
	case resp.StatusCode == http.StatusOK:
		return nil, errorz.ErrInvalidCredentials
	default:
		return nil, &UpstreamError{Status: resp.StatusCode, BodyExcerpt: excerpt(body)}
	}

	sess.MarkAuthenticated()

	// Steps 3-4: follow the redirect and visit the dispatch list to warm
	// the session. The portal issues further cookies lazily on the first
	// authenticated navigations; failures here are non-fatal.
	if location := resp.Header.Get("Location"); location != "" {
		a.warm(ctx, sess, a.resolve(location))
		a.warm(ctx, sess, a.baseURL+dispatchListPath)
	}

	a.log.Info().Int("cookies", sess.CookieCount()).Msg("portal login successful")
	return sess, nil
}

func (a *Authenticator) getLoginPage(ctx context.Context, sess *Session) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+loginPath, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	body, err := readBody(resp)
	if err != nil {
		return "", err
	}
	sess.Merge(resp.Header.Values("Set-Cookie"))
	return body, nil
}

// warm GETs an authenticated page purely to accumulate the cookies the
// portal sets on first navigation. Errors are logged and swallowed.
func (a *Authenticator) warm(ctx context.Context, sess *Session, target string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return
	}
	req.Header.Set("Accept", browserAccept)
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Cookie", sess.CookieHeader())

	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn().Err(err).Str("url", target).Msg("session warm-up request failed")
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	sess.Merge(resp.Header.Values("Set-Cookie"))
}

// resolve turns a redirect Location into an absolute URL against the
// portal origin.
func (a *Authenticator) resolve(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	if !strings.HasPrefix(location, "/") {
		location = "/" + location
	}
	return a.baseURL + location
}

func readBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func excerpt(body string) string {
	const max = 200
	if len(body) > max {
		return body[:max]
	}
	return body
}
