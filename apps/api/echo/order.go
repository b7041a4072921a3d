package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/order"
)

type orderApi struct {
	auth     *authenticator
	svc      *order.Service
	validate *validator.Validate
}

func registerOrderAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *authenticator,
	svc *order.Service,
	validate *validator.Validate,
) {
	api := orderApi{
		auth:     auth,
		svc:      svc,
		validate: validate,
	}

	og := g.Group("/orders", jwt)
	og.POST("", api.create)
	og.POST("/capture", api.capture)
}

// Handlers

func (api *orderApi) create(ctx echo.Context) error {
	var data order.NewOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	buyer, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	checkout, err := api.svc.Create(ctx.Request().Context(), buyer, data)
	if err != nil {
		return errors.Wrap(err, "creating order")
	}
	return ctx.JSON(http.StatusCreated, checkout)
}

func (api *orderApi) capture(ctx echo.Context) error {
	var data order.CaptureOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CaptureOrder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	o, err := api.svc.Capture(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "capturing order")
	}
	return ctx.JSON(http.StatusOK, o)
}
