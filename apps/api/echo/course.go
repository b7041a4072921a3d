package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
)

type courseApi struct {
	auth        *authenticator
	svc         *course.Service
	enrollments *enrollment.Service
	validate    *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	instructor echo.MiddlewareFunc,
	auth *authenticator,
	svc *course.Service,
	enrollments *enrollment.Service,
	validate *validator.Validate,
) {
	api := courseApi{
		auth:        auth,
		svc:         svc,
		enrollments: enrollments,
		validate:    validate,
	}

	// catalog
	cg := g.Group("/courses")
	cg.GET("", api.catalog)
	cg.GET("/:id", api.publicDetail)
	cg.GET("/:id/purchase-info", api.purchaseInfo, jwt)

	// authoring
	ig := g.Group("/instructor/courses", jwt, instructor)
	ig.POST("", api.create)
	ig.GET("", api.listOwn)

	owner := courseOwnerMiddleware(svc)
	ig.GET("/:id", api.detail, owner)
	ig.PUT("/:id", api.update, owner)
	ig.DELETE("/:id", api.delete, owner)
}

// Handlers

func (api *courseApi) catalog(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context(), bindQueryFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	views := make([]course.Course, len(courses))
	for i, c := range courses {
		views[i] = c.PublicView()
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *courseApi) publicDetail(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, c.PublicView())
}

func (api *courseApi) purchaseInfo(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	purchased, err := api.enrollments.IsPurchased(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "checking purchase")
	}
	return ctx.JSON(http.StatusOK, PurchaseInfo{IsPurchased: purchased})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.Create(ctx.Request().Context(), usr.ID, usr.DisplayName(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) listOwn(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	courses, err := api.svc.QueryByInstructor(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying instructor courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) detail(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ctx.Get(objectContextKey))
}

func (api *courseApi) update(ctx echo.Context) error {
	orig := ctx.Get(objectContextKey).(course.Course)

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) delete(ctx echo.Context) error {
	c := ctx.Get(objectContextKey).(course.Course)
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type PurchaseInfo struct {
	IsPurchased bool `json:"is_purchased"`
}
