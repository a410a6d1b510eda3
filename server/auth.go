package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msbooks/bookshelf/redactor"
	"github.com/msbooks/bookshelf/session"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	tokenLength          = 64
	tokenDuration        = time.Hour
	refreshTokenLength   = 128
	refreshTokenDuration = 30 * 24 * time.Hour
	sessionIDLength      = 32

	loginRate  = time.Second
	loginBurst = 5

	authHeaderName      = "Authorization"
	setCookieHeaderName = "Set-Cookie"
	tokenCookieName     = "token"
)

var (
	errInvalidLogin     = errors.New("Incorrect password")
	errUnauthorized     = errors.New("Unauthorized")
	errTooManyAttempts  = errors.New("Too many login attempts, try again shortly")
	errMissingSessionID = errors.New("Missing session")
)

// authenticator hands out tokens, each tied to the session that signed in
type authenticator struct {
	password              redactor.String
	tokens, refreshTokens *cache.Cache
	limiter               *rate.Limiter
}

func newAuthenticator(password redactor.String) *authenticator {
	return &authenticator{
		password:      password,
		tokens:        cache.New(tokenDuration, tokenDuration/5+1),
		refreshTokens: cache.New(refreshTokenDuration, refreshTokenDuration/5+1),
		limiter:       rate.NewLimiter(rate.Every(loginRate), loginBurst),
	}
}

func (a *authenticator) SignIn(password redactor.String) (token, refreshToken string, tokenExpire, refreshExpire time.Time, err error) {
	password = redactor.String(strings.TrimSpace(string(password)))
	if a.password == "" || !a.password.Equal(password) {
		return "", "", time.Time{}, time.Time{}, errInvalidLogin
	}
	now := time.Now()
	sessionID := randomToken(sessionIDLength)
	token = randomToken(tokenLength)
	a.tokens.SetDefault(token, sessionID)
	refreshToken = randomToken(refreshTokenLength)
	a.refreshTokens.SetDefault(refreshToken, sessionID)
	return token, refreshToken, now.Add(tokenDuration), now.Add(refreshTokenDuration), nil
}

// Authenticate returns the caller's session ID. A refresh token in the auth header is traded for a new token cookie.
func (a *authenticator) Authenticate(resp http.ResponseWriter, req *http.Request) (string, error) {
	authTokenHeader := req.Header.Get(authHeaderName)
	if authTokenHeader != "" {
		// authentication provided via header
		if sessionID, found := a.tokens.Get(authTokenHeader); found {
			// valid token
			return sessionID.(string), nil
		}
		token, sessionID, expires, err := a.NewToken(authTokenHeader)
		if err != nil {
			// auth header was not a valid refresh token
			return "", err
		}
		// successfully created new token
		a.SetCookies(resp, token, expires)
		return sessionID, nil
	}
	// authentication provided via cookie
	tokenCookie, err := req.Cookie(tokenCookieName)
	if err != nil {
		return "", errUnauthorized
	}
	sessionID, found := a.tokens.Get(tokenCookie.Value)
	if !found {
		return "", errUnauthorized
	}
	return sessionID.(string), nil
}

func (a *authenticator) NewToken(refreshToken string) (token, sessionID string, expiration time.Time, err error) {
	value, found := a.refreshTokens.Get(refreshToken)
	if !found || refreshToken == "" {
		// !found == expired or doesn't exist
		return "", "", time.Time{}, errUnauthorized
	}
	sessionID = value.(string)
	token = randomToken(tokenLength)
	expiration = time.Now().Add(tokenDuration)
	a.tokens.SetDefault(token, sessionID)
	return token, sessionID, expiration, nil
}

// SignOut revokes every token belonging to the session
func (a *authenticator) SignOut(sessionID string) {
	for _, c := range []*cache.Cache{a.tokens, a.refreshTokens} {
		for token, item := range c.Items() {
			if item.Object == sessionID {
				c.Delete(token)
			}
		}
	}
}

func (a *authenticator) SetCookies(resp http.ResponseWriter, token string, expireTime time.Time) {
	resp.Header().Add(setCookieHeaderName, (&http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Expires:  expireTime.Add(-10 * time.Second), // expire a little earlier on client to account for latency
	}).String())
}

func (a *authenticator) ClearCookies(resp http.ResponseWriter) {
	resp.Header().Add(setCookieHeaderName, (&http.Cookie{
		Name:     tokenCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}).String())
}

func requireAuth(auth *authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := auth.Authenticate(c.Writer, c.Request)
		if err == nil {
			c.Set(sessionKey, sessionID)
			return
		}

		if err == errUnauthorized {
			abortWithClientError(c, http.StatusUnauthorized, err)
			return
		}
		abortWithClientError(c, http.StatusInternalServerError, err)
	}
}

func getSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func signIn(auth *authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !auth.limiter.Allow() {
			abortWithClientError(c, http.StatusTooManyRequests, errTooManyAttempts)
			return
		}
		var creds struct {
			Password redactor.String
		}
		if err := c.BindJSON(&creds); err != nil {
			abortWithClientError(c, http.StatusBadRequest, err)
			return
		}
		token, refreshToken, tokenExpires, refreshTokenExpires, err := auth.SignIn(creds.Password)
		if err != nil {
			abortWithClientError(c, http.StatusUnauthorized, err)
			return
		}
		auth.SetCookies(c.Writer, token, tokenExpires)
		c.JSON(http.StatusOK, map[string]interface{}{
			"Token":               token,
			"TokenExpires":        tokenExpires,
			"RefreshToken":        refreshToken,
			"RefreshTokenExpires": refreshTokenExpires,
		})
	}
}

func signOut(auth *authenticator, marks *session.Marks) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := getSessionID(c)
		if sessionID == "" {
			abortWithClientError(c, http.StatusInternalServerError, errMissingSessionID)
			return
		}
		auth.SignOut(sessionID)
		marks.End(sessionID)
		auth.ClearCookies(c.Writer)
		c.Status(http.StatusNoContent)
	}
}

func randomToken(length uint) string {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	if err != nil {
		panic("Error generating random string")
	}
	return base64.StdEncoding.EncodeToString(buf)
}
