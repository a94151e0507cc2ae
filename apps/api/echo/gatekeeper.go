package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/gatekeeper"
	"github.com/darasa/darasa/core/school"
)

type gatekeeperApi struct {
	svc       *gatekeeper.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

func registerGatekeeperAPI(g *echo.Group, jwt, sub echo.MiddlewareFunc, opts *Options) {
	api := gatekeeperApi{svc: opts.GatekeeperSvc, schoolSvc: opts.SchoolSvc, validate: opts.Validate}

	// the gate terminal resolves its own profile after login
	g.GET("/gatekeepers/me", api.retrieveMine, jwt, sub, gateMiddleware())

	gg := g.Group("/gatekeepers", jwt, sub, adminMiddleware())
	gg.POST("", api.create)
	gg.GET("", api.query)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update)
	gg.DELETE("/:id", api.destroy)
}

func (api *gatekeeperApi) create(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data gatekeeper.NewGatekeeper
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGatekeeper")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	gk, err := api.svc.Create(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating gatekeeper")
	}
	return ctx.JSON(http.StatusCreated, gk)
}

func (api *gatekeeperApi) query(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	gatekeepers, err := api.svc.Query(ctx.Request().Context(), sch.ID)
	if err != nil {
		return errors.Wrap(err, "querying gatekeepers")
	}
	if gatekeepers == nil {
		gatekeepers = []gatekeeper.Gatekeeper{}
	}
	return ctx.JSON(http.StatusOK, gatekeepers)
}

func (api *gatekeeperApi) retrieve(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	gk, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, gk)
}

// retrieveMine returns the gatekeeper profile of the logged-in account along
// with the live on-duty flag.
func (api *gatekeeperApi) retrieveMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	gk, err := api.svc.GetByAccount(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, GatekeeperProfile{
		Gatekeeper: gk,
		OnDuty:     gk.OnDuty(time.Now(), sch.Location()),
	})
}

func (api *gatekeeperApi) update(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	gk, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data gatekeeper.UpdateGatekeeper
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGatekeeper")
	}
	if err = data.Validate(gk, api.validate); err != nil {
		return err
	}

	gk, err = api.svc.Update(ctx.Request().Context(), sch.ID, gk.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating gatekeeper")
	}
	return ctx.JSON(http.StatusOK, gk)
}

func (api *gatekeeperApi) destroy(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type GatekeeperProfile struct {
	gatekeeper.Gatekeeper
	OnDuty bool `json:"on_duty"`
}
