package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/school"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := schoolApi{svc: opts.SchoolSvc, validate: opts.Validate}

	// institute self-service; license redemption stays open to expired schools
	sg := g.Group("/schools", jwt)
	sg.GET("/me", api.retrieveMine, adminMiddleware())
	sg.PUT("/me", api.updateMine, adminMiddleware())
	sg.POST("/me/license", api.redeemLicense, adminMiddleware())

	// platform operations
	pg := g.Group("/schools", jwt, superMiddleware())
	pg.POST("", api.create)
	pg.GET("", api.query)

	lg := g.Group("/licenses", jwt, superMiddleware())
	lg.POST("", api.mintLicenses)
	lg.GET("", api.queryLicenses)
}

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) query(ctx echo.Context) error {
	schools, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) retrieveMine(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.svc)
	if err != nil {
		return err
	}
	// report the derived state, patched if stale
	sch = api.svc.Refresh(ctx.Request().Context(), sch, time.Now().UTC())
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) updateMine(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.svc)
	if err != nil {
		return err
	}

	var data school.UpdateSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err = data.Validate(sch, api.validate); err != nil {
		return err
	}

	sch, err = api.svc.Update(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) redeemLicense(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.svc)
	if err != nil {
		return err
	}

	var data RedeemLicenseRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RedeemLicenseRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sch, err = api.svc.Redeem(ctx.Request().Context(), sch.ID, data.LicenseKey, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "redeeming license key")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) mintLicenses(ctx echo.Context) error {
	var data MintLicensesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MintLicensesRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	d, err := school.ParseDuration(data.Duration)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "duration", Error: err.Error()})
	}
	keys, err := api.svc.MintLicenses(ctx.Request().Context(), d, data.Count, data.NotifyEmail)
	if err != nil {
		return errors.Wrap(err, "minting license keys")
	}
	return ctx.JSON(http.StatusCreated, keys)
}

func (api *schoolApi) queryLicenses(ctx echo.Context) error {
	keys, err := api.svc.QueryLicenses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying license keys")
	}
	if keys == nil {
		keys = []school.LicenseKey{}
	}
	return ctx.JSON(http.StatusOK, keys)
}

type (
	RedeemLicenseRequest struct {
		LicenseKey string `json:"license_key" validate:"required"`
	}

	MintLicensesRequest struct {
		Duration    string `json:"duration" validate:"required"` // e.g. "6M", "30D", "12H"
		Count       int    `json:"count" validate:"omitempty,min=1,max=100"`
		NotifyEmail string `json:"notify_email" validate:"omitempty,email"`
	}
)

func (rr *RedeemLicenseRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}

func (mr *MintLicensesRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(mr)
}
