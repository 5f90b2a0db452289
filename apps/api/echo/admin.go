package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core/note"
	"github.com/kazadi/maktaba/core/user"
)

type adminApi struct {
	userSvc user.Service
	noteSvc note.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		userSvc: deps.UserSvc,
		noteSvc: deps.NoteSvc,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/stats", api.stats)
	ag.GET("/users", api.queryUsers)
	ag.GET("/users/roles", api.queryRoles)
}

type StatsResponse struct {
	TotalUsers int `json:"total_users"`
	TotalNotes int `json:"total_notes"`
}

// Handlers

func (api *adminApi) stats(ctx echo.Context) error {
	users, err := api.userSvc.Count(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting users")
	}
	notes, err := api.noteSvc.Count(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting notes")
	}
	return ctx.JSON(http.StatusOK, StatsResponse{TotalUsers: users, TotalNotes: notes})
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.userSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, user.Roles)
}
