package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasa/darasa/core"
	"github.com/darasa/darasa/core/billing"
	"github.com/darasa/darasa/core/school"
)

type billingApi struct {
	svc       *billing.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

// registerBillingAPI wires the payment endpoints. They sit outside the
// subscription gate: an expired institute must still be able to pay.
func registerBillingAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := billingApi{svc: opts.BillingSvc, schoolSvc: opts.SchoolSvc, validate: opts.Validate}

	bg := g.Group("/billing", jwt, adminMiddleware())
	bg.POST("/orders", api.createOrder)
	bg.GET("/orders", api.queryOrders)
	bg.GET("/orders/:id", api.retrieveOrder)
	bg.POST("/orders/confirm", api.confirmPayment)
	bg.POST("/custom-plan", api.requestCustomPlan)
	bg.GET("/custom-plan", api.queryPlanRequests)
}

func (api *billingApi) createOrder(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data billing.NewOrder
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ord, err := api.svc.CreateOrder(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		// gateway throttling surfaces as 429 via the error handler
		return err
	}
	return ctx.JSON(http.StatusCreated, ord)
}

func (api *billingApi) queryOrders(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	orders, err := api.svc.QueryOrders(ctx.Request().Context(), sch.ID)
	if err != nil {
		return errors.Wrap(err, "querying payment orders")
	}
	if orders == nil {
		orders = []billing.PaymentOrder{}
	}
	return ctx.JSON(http.StatusOK, orders)
}

func (api *billingApi) retrieveOrder(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	ord, err := api.svc.GetOrder(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ord)
}

// confirmPayment settles an order with the gateway's callback payload; on
// success the subscription is extended by the order's months.
func (api *billingApi) confirmPayment(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data billing.PaymentConfirmation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentConfirmation")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ord, err := api.svc.ConfirmPayment(ctx.Request().Context(), sch.ID, data, time.Now().UTC())
	if err != nil {
		switch errors.Cause(err) {
		case billing.ErrInvalidSignature:
			return core.NewValidationError(err, core.FieldError{Field: "signature", Error: err.Error()})
		case billing.ErrOrderClosed:
			return errHttpConflict
		}
		return err
	}
	return ctx.JSON(http.StatusOK, ord)
}

func (api *billingApi) requestCustomPlan(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}

	var data billing.NewCustomPlanRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCustomPlanRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.RequestCustomPlan(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating custom plan request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *billingApi) queryPlanRequests(ctx echo.Context) error {
	sch, err := getContextSchool(ctx, api.schoolSvc)
	if err != nil {
		return err
	}
	reqs, err := api.svc.QueryPlanRequests(ctx.Request().Context(), sch.ID)
	if err != nil {
		return errors.Wrap(err, "querying custom plan requests")
	}
	if reqs == nil {
		reqs = []billing.CustomPlanRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}
