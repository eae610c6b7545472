package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/social-network-api/shared/auth"
	"github.com/vasapolrittideah/social-network-api/shared/security"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStatePath   = "/auth/google"
	oauthStateMaxAge = 600
)

// googleStart redirects to the Google consent screen with a CSRF state
// that the callback checks against a short-lived cookie.
func (h *httpHandler) googleStart(w http.ResponseWriter, r *http.Request) {
	state, err := security.GenerateRandomToken(16)
	if err != nil {
		writeError(w, r, err)
		return
	}

	authURL, err := h.usecases.Federated.AuthCodeURL(state)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     oauthStatePath,
		Domain:   h.config.CookieDomain,
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// googleCallback finishes the code flow, opens a session and sends the
// browser back to the front end. Failures are reported through the
// "error" query parameter of the front-end URL.
func (h *httpHandler) googleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.clearCookie(w, oauthStateCookie, oauthStatePath)

	if query.Get("error") != "" {
		h.redirectToFrontend(w, r, url.Values{"error": {"access_denied"}}, nil)
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || !sameState(cookie.Value, query.Get("state")) {
		h.redirectToFrontend(w, r, url.Values{"error": {"invalid_state"}}, nil)
		return
	}

	result, err := h.usecases.Federated.Login(r.Context(), query.Get("code"), sessionMetadata(r))
	if err != nil {
		code := "server_error"
		if errors.Is(err, auth.ErrTokenInvalid) {
			code = "access_denied"
		}
		hlog.FromRequest(r).Error().Err(err).Msg("google login failed")
		h.redirectToFrontend(w, r, url.Values{"error": {code}}, nil)
		return
	}

	h.setSessionCookie(w, result)
	h.redirectToFrontend(w, r, nil, url.Values{
		"access_token": {result.AccessToken},
		"token_type":   {"Bearer"},
		"expires_at":   {strconv.FormatInt(result.Claims.ExpiresAt.Unix(), 10)},
	})
}

// redirectToFrontend sends the browser to the front end, with the access
// token in the URL fragment.
func (h *httpHandler) redirectToFrontend(w http.ResponseWriter, r *http.Request, query, fragment url.Values) {
	target, err := url.Parse(h.config.FrontendURL)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if query != nil {
		target.RawQuery = query.Encode()
	}

	location := target.String()
	if fragment != nil {
		location += "#" + fragment.Encode()
	}

	http.Redirect(w, r, location, http.StatusFound)
}

func sameState(expected, actual string) bool {
	if expected == "" || actual == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(actual)) == 1
}
