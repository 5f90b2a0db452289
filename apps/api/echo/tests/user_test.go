package tests

import (
	"context"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kazadi/maktaba/apps/api/echo"
	"github.com/kazadi/maktaba/core/user"
	emailsvc "github.com/kazadi/maktaba/services/email"
)

func Test_userApi_register(t *testing.T) {
	resetDB()

	createUser(t, "Taken", "takenuser", "taken@test.cd", "", nil, true)

	t.Run("creates a member account", func(t *testing.T) {
		body := marshallObj(t, echo.Map{
			"name":             "Jane Doe",
			"username":         "janedoe",
			"email":            "jane@test.cd",
			"password":         "v3ry#Sekret!",
			"password_confirm": "v3ry#Sekret!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var usr user.User
		decodeBody(t, rec, &usr)
		assert.Equal(t, "Jane Doe", usr.Name)
		assert.Equal(t, "jane@test.cd", usr.Email)
		assert.Equal(t, []string{user.RoleMember}, usr.Roles)
		assert.True(t, usr.IsActive)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		body := marshallObj(t, echo.Map{
			"name":             "Copy Cat",
			"username":         "copycat",
			"email":            "taken@test.cd",
			"password":         "v3ry#Sekret!",
			"password_confirm": "v3ry#Sekret!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var fldErrs map[string]string
		decodeBody(t, rec, &fldErrs)
		assert.Contains(t, fldErrs, "email")
	})

	t.Run("rejects password similar to email", func(t *testing.T) {
		body := marshallObj(t, echo.Map{
			"name":             "Sim",
			"username":         "simsim1",
			"email":            "simsim@test.cd",
			"password":         "simsim@test.cd",
			"password_confirm": "simsim@test.cd",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		var fldErrs map[string]string
		decodeBody(t, rec, &fldErrs)
		assert.Contains(t, fldErrs, "password")
	})
}

func Test_userApi_login(t *testing.T) {
	resetDB()

	usr := createUser(t, "User", "awesome", "awe@test.cd", "t3st#Sekret!", nil, true)
	createUser(t, "Lazy", "lazybone", "lazy@test.cd", "t3st#Sekret!", nil, false)

	tests := []httpTest{
		{
			name: "unknown user", body: marshallObj(t, echoapi.LoginRequest{Username: "who@test.cd", Password: "t3st#Sekret!"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: marshallObj(t, echoapi.LoginRequest{Username: "awe@test.cd", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: marshallObj(t, echoapi.LoginRequest{Username: "lazy@test.cd", Password: "t3st#Sekret!"}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("username or email works", func(t *testing.T) {
		for _, uname := range []string{"awesome", "awe@test.cd"} {
			body := marshallObj(t, echoapi.LoginRequest{Username: uname, Password: "t3st#Sekret!"})
			req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
			app.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var res echoapi.LoginResponse
			decodeBody(t, rec, &res)
			assert.NotEmpty(t, res.Token)
		}

		// login sets LastLogin
		loggedIn, err := usrSvc.GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, loggedIn.LastLogin.IsZero())
	})
}

func Test_userApi_me(t *testing.T) {
	resetDB()

	usr := createUser(t, "User", "awesome", "awe@test.cd", "", nil, true)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/users/me")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("returns current user", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, usr)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/me", getToken(t, usr))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("dark mode toggles", func(t *testing.T) {
		token := getToken(t, usr)

		req, rec := newAuthRequest(http.MethodPost, "/v1/users/me/dark-mode", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var updated user.User
		decodeBody(t, rec, &updated)
		assert.True(t, updated.DarkMode)

		req, rec = newAuthRequest(http.MethodPost, "/v1/users/me/dark-mode", token)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeBody(t, rec, &updated)
		assert.False(t, updated.DarkMode)
	})
}

var resetURLRegex = regexp.MustCompile(`/reset/([A-Za-z0-9_-]+)`)

func requestResetToken(t *testing.T, email string) string {
	t.Helper()

	emailsvc.ClearSentMessages()
	body := marshallObj(t, echoapi.PasswordResetRequest{Email: email})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, emailsvc.SentMessages, 1)
	match := resetURLRegex.FindStringSubmatch(emailsvc.SentMessages[0].TextContent)
	require.Len(t, match, 2, "reset link not found in email body")
	return match[1]
}

func Test_userApi_passwordReset(t *testing.T) {
	resetDB()

	createUser(t, "User", "awesome", "awe@test.cd", "t3st#Sekret!", nil, true)

	t.Run("unknown email does not leak", func(t *testing.T) {
		emailsvc.ClearSentMessages()
		body := marshallObj(t, echoapi.PasswordResetRequest{Email: "who@test.cd"})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, emailsvc.SentMessages)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		body := marshallObj(t, user.ResetUserPassword{
			Token:           "bogus-token",
			Password:        "an0ther#Sekret!",
			PasswordConfirm: "an0ther#Sekret!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "invalid password reset token"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := requestResetToken(t, "awe@test.cd")

		user.NowFunc = func() time.Time { return time.Now().Add(16 * time.Minute) }
		defer func() { user.NowFunc = time.Now }()

		body := marshallObj(t, user.ResetUserPassword{
			Token:           token,
			Password:        "an0ther#Sekret!",
			PasswordConfirm: "an0ther#Sekret!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "password reset token expired"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("valid token resets the password", func(t *testing.T) {
		token := requestResetToken(t, "awe@test.cd")

		body := marshallObj(t, user.ResetUserPassword{
			Token:           token,
			Password:        "an0ther#Sekret!",
			PasswordConfirm: "an0ther#Sekret!",
		})
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		// token is single-use
		req, rec = newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		// old password no longer works
		login := marshallObj(t, echoapi.LoginRequest{Username: "awe@test.cd", Password: "t3st#Sekret!"})
		req, rec = newRequest(http.MethodPost, "/v1/users/login", login)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		// new one does
		login = marshallObj(t, echoapi.LoginRequest{Username: "awe@test.cd", Password: "an0ther#Sekret!"})
		req, rec = newRequest(http.MethodPost, "/v1/users/login", login)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	resetDB()

	usr := createUser(t, "User", "awesome", "awe@test.cd", "", nil, true)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("returns a fresh token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res echoapi.LoginResponse
		decodeBody(t, rec, &res)
		assert.NotEmpty(t, res.Token)
	})
}
