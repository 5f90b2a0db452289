package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core/note"
)

type noteApi struct {
	svc      note.Service
	validate *validator.Validate
}

func registerNoteAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := noteApi{
		svc:      deps.NoteSvc,
		validate: deps.Validate,
	}

	ng := g.Group("/notes")

	// un-authed endpoints
	ng.GET("/public", api.public)
	ng.GET("/download/:filename", api.download)

	// authed endpoints
	ag := ng.Group("", jwt)
	ag.POST("", api.create)
	ag.GET("/mine", api.mine)
	ag.GET("/bookmarks", api.bookmarks)
	ag.GET("/analytics", api.analytics)

	// detail endpoints
	dg := ag.Group("/:id")
	dg.POST("/rate", api.rate)
	dg.POST("/review", api.review)
	dg.POST("/bookmark", api.bookmark)
	dg.DELETE("/bookmark", api.removeBookmark)
}

// Handlers

// create uploads a note as multipart form data: metadata fields plus a "file"
// part. Tags and summary are derived server-side.
func (api *noteApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data note.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = src.Close() }()

	n, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data, fh.Filename, fh.Size, src)
	if err != nil {
		return errors.Wrap(err, "creating note")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noteApi) mine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notes, err := api.svc.QueryByOwner(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notes by owner")
	}
	if notes == nil {
		notes = []note.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) public(ctx echo.Context) error {
	notes, err := api.svc.Public(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying public notes")
	}
	if notes == nil {
		notes = []note.PublicNote{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) download(ctx echo.Context) error {
	filename := ctx.Param("filename")
	path, err := api.svc.Download(ctx.Request().Context(), filename)
	if err != nil {
		return errors.Wrap(err, "downloading note")
	}
	return ctx.Attachment(path, filename)
}

func (api *noteApi) rate(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data note.NewRating
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRating")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Rate(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Value)
	if err != nil {
		return errors.Wrap(err, "rating note")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) review(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data note.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rev, err := api.svc.Review(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data.Text)
	if err != nil {
		return errors.Wrap(err, "reviewing note")
	}
	return ctx.JSON(http.StatusCreated, rev)
}

func (api *noteApi) bookmark(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Bookmark(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "bookmarking note")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *noteApi) removeBookmark(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.RemoveBookmark(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing bookmark")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *noteApi) bookmarks(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notes, err := api.svc.Bookmarks(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying bookmarked notes")
	}
	if notes == nil {
		notes = []note.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) analytics(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	analytics, err := api.svc.Analytics(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying analytics")
	}
	return ctx.JSON(http.StatusOK, analytics)
}
