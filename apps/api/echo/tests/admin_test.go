package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/kazadi/maktaba/apps/api/echo"
	"github.com/kazadi/maktaba/core/user"
)

func Test_adminApi(t *testing.T) {
	resetDB()

	member := createUser(t, "Member", "member1", "member@test.cd", "", nil, true)
	admin := createUser(t, "Admin", "admin01", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	createNote(t, member.ID, "Python Basics", "Programming", true, "content")

	adminToken := getToken(t, admin)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/admin/stats")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/stats", getToken(t, member))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/stats", adminToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, echoapi.StatsResponse{TotalUsers: 2, TotalNotes: 1})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("user listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/users?ordering=name", adminToken)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		decodeBody(t, rec, &users)
		require.Len(t, users, 2)
		assert.Equal(t, admin.ID, users[0].ID)
		assert.Equal(t, member.ID, users[1].ID)
	})

	t.Run("user listing filtered by role", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/users?role="+user.RoleAdmin, adminToken)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		decodeBody(t, rec, &users)
		require.Len(t, users, 1)
		assert.Equal(t, admin.ID, users[0].ID)
	})

	t.Run("roles listing", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/users/roles", adminToken)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, user.Roles)}
		checkCodeAndData(t, tt, rec)
	})
}
