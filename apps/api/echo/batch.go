package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/batch"
	"github.com/darasa/darasa/core/school"
)

type batchApi struct {
	svc       *batch.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

func registerBatchAPI(g *echo.Group, jwt, sub echo.MiddlewareFunc, opts *Options) {
	api := batchApi{svc: opts.BatchSvc, schoolSvc: opts.SchoolSvc, validate: opts.Validate}

	bg := g.Group("/batches", jwt, sub, adminMiddleware())
	bg.POST("", api.create)
	bg.GET("", api.query)
	bg.GET("/:id", api.retrieve)
	bg.PUT("/:id", api.update)
	bg.DELETE("/:id", api.destroy)
}

func (api *batchApi) create(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data batch.NewBatch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating batch")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *batchApi) query(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	batches, err := api.svc.Query(ctx.Request().Context(), sch.ID)
	if err != nil {
		return errors.Wrap(err, "querying batches")
	}
	if batches == nil {
		batches = []batch.Batch{}
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *batchApi) retrieve(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	b, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *batchApi) update(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	b, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data batch.UpdateBatch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBatch")
	}
	if err = data.Validate(b, api.validate); err != nil {
		return err
	}

	b, err = api.svc.Update(ctx.Request().Context(), sch.ID, b.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating batch")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *batchApi) destroy(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
