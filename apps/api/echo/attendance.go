package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/attendance"
	"github.com/darasa/darasa/core/report"
	"github.com/darasa/darasa/core/school"
)

type attendanceApi struct {
	svc       *attendance.Service
	reportSvc *report.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt, sub echo.MiddlewareFunc, opts *Options) {
	api := attendanceApi{svc: opts.AttendanceSvc, reportSvc: opts.ReportSvc, schoolSvc: opts.SchoolSvc, validate: opts.Validate}

	// gate terminal operations
	gg := g.Group("/attendance", jwt, sub, gateMiddleware())
	gg.POST("/verify", api.verify)
	gg.POST("/entry", api.recordEntry)
	gg.POST("/exit", api.recordExit)

	// principal's office
	ag := g.Group("/attendance", jwt, sub, adminMiddleware())
	ag.GET("", api.query)
	ag.GET("/report", api.monthlyReport)
}

// verify resolves a scanned/typed student code without recording anything;
// the terminal shows the student and lateness before the gatekeeper confirms.
func (api *attendanceApi) verify(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data attendance.ScanRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.Verify(ctx.Request().Context(), sch.ID, data.StudentCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *attendanceApi) recordEntry(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data attendance.ScanRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.RecordEntry(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *attendanceApi) recordExit(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data attendance.ScanRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScanRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.RecordExit(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		if errors.Cause(err) == attendance.ErrNoOpenEntry {
			return core.NewValidationError(err, core.FieldError{Field: "student_code", Error: err.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	filter := new(attendance.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Entry{})
	}

	entries, err := api.svc.Query(ctx.Request().Context(), sch.ID, filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance entries")
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

// monthlyReport builds the month's aggregate and serves it as JSON (default),
// CSV or PDF depending on ?format=.
func (api *attendanceApi) monthlyReport(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	now := time.Now()
	year, month, err := reportPeriod(ctx, now)
	if err != nil {
		return err
	}

	rep, err := api.reportSvc.BuildMonthly(ctx.Request().Context(), sch.ID, year, month)
	if err != nil {
		return errors.Wrap(err, "building monthly report")
	}

	switch format := ctx.QueryParam("format"); format {
	case "", "json":
		return ctx.JSON(http.StatusOK, rep)
	case "csv":
		var buff bytes.Buffer
		if err = report.WriteCSV(&buff, rep); err != nil {
			return errors.Wrap(err, "rendering CSV report")
		}
		setAttachment(ctx, fmt.Sprintf("attendance-%d-%02d.csv", year, month))
		return ctx.Blob(http.StatusOK, "text/csv", buff.Bytes())
	case "pdf":
		var buff bytes.Buffer
		if err = report.WritePDF(&buff, rep); err != nil {
			return errors.Wrap(err, "rendering PDF report")
		}
		setAttachment(ctx, fmt.Sprintf("attendance-%d-%02d.pdf", year, month))
		return ctx.Blob(http.StatusOK, "application/pdf", buff.Bytes())
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "format", Error: "must be one of: json, csv, pdf"})
	}
}

// reportPeriod reads ?year & ?month, defaulting to the current month.
func reportPeriod(ctx echo.Context, now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()
	if s := ctx.QueryParam("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 2000 || y > 2100 {
			return 0, 0, core.NewValidationError(nil, core.FieldError{Field: "year", Error: "invalid year"})
		}
		year = y
	}
	if s := ctx.QueryParam("month"); s != "" {
		m, err := strconv.Atoi(s)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "invalid month"})
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func setAttachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
}
