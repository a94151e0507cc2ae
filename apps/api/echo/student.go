package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core/school"
	"github.com/darasa/darasa/core/student"
	uploadsvc "github.com/darasa/darasa/services/upload"
)

type studentApi struct {
	svc       *student.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt, sub echo.MiddlewareFunc, opts *Options) {
	api := studentApi{svc: opts.StudentSvc, schoolSvc: opts.SchoolSvc, validate: opts.Validate}

	sg := g.Group("/students", jwt, sub, adminMiddleware())
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.DELETE("", api.destroyMultiple)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.GET("/:id/badge.png", api.badge)
}

func (api *studentApi) create(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err = data.Validate(api.validate, api.svc, sch.ID); err != nil {
		return err
	}

	st, err := api.svc.Create(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) query(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	filter := new(student.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, "student_id", "full_name", "class_name", "created_at")

	students, err := api.svc.Query(ctx.Request().Context(), sch.ID, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	st, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	st, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err = data.Validate(st, api.validate); err != nil {
		return err
	}

	st, err = api.svc.Update(ctx.Request().Context(), sch.ID, st.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) destroyMultiple(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	var query DestroyMultipleRequest
	if err = ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err = api.svc.Delete(ctx.Request().Context(), sch.ID, query.IDs...); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// badge serves the printable QR the gate scanner reads.
func (api *studentApi) badge(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	st, err := api.svc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}

	png, err := uploadsvc.StudentBadge(st.StudentID)
	if err != nil {
		return errors.Wrap(err, "rendering student badge")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}
