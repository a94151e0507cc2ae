package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/school"
	uploadsvc "github.com/darasa/darasa/services/upload"
)

type uploadApi struct {
	svc       *uploadsvc.Service
	schoolSvc *school.Service
}

func registerUploadAPI(g *echo.Group, jwt, sub echo.MiddlewareFunc, opts *Options) {
	api := uploadApi{svc: opts.UploadSvc, schoolSvc: opts.SchoolSvc}

	g.POST("/uploads", api.create, jwt, sub, adminMiddleware())
}

// create stores an uploaded image (student photo, school logo) under the
// school's folder and returns its public URL.
func (api *uploadApi) create(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "image file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	url, err := api.svc.SaveImage(sch.ID, f)
	if err != nil {
		if errors.Cause(err) == uploadsvc.ErrUnsupportedImage {
			return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
		}
		return errors.Wrap(err, "saving uploaded image")
	}
	return ctx.JSON(http.StatusCreated, UploadResponse{URL: url})
}

type UploadResponse struct {
	URL string `json:"url"`
}
