package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazadi/maktaba/core/group"
)

func Test_groupApi(t *testing.T) {
	resetDB()

	usr := createUser(t, "User", "awesome", "awe@test.cd", "", nil, true)
	token := getToken(t, usr)

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/groups")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("name is required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups", token, []byte(`{}`))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})

	var created group.Group

	t.Run("create", func(t *testing.T) {
		body := marshallObj(t, group.NewGroup{Name: "Study Room"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/groups", token, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decodeBody(t, rec, &created)
		assert.Equal(t, "Study Room", created.Name)
		assert.NotEmpty(t, created.ID)
	})

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups", token)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marshallList(t, created)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/"+created.ID, token)
		app.ServeHTTP(rec, req)

		tt := httpTest{wantCode: http.StatusOK, wantData: marshallObj(t, created)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/groups/4242", token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	})
}
