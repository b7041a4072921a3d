package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/progress"
)

type studentApi struct {
	enrollments *enrollment.Service
	progress    *progress.Service
	validate    *validator.Validate
}

func registerStudentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	enrollments *enrollment.Service,
	progressSvc *progress.Service,
	validate *validator.Validate,
) {
	api := studentApi{
		enrollments: enrollments,
		progress:    progressSvc,
		validate:    validate,
	}

	g.GET("/student/courses", api.listCourses, jwt)

	pg := g.Group("/progress", jwt)
	pg.GET("/:courseId", api.getProgress)
	pg.POST("/mark-viewed", api.markViewed)
	pg.POST("/reset", api.reset)
}

// Handlers

func (api *studentApi) listCourses(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	courses, err := api.enrollments.List(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "listing student courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *studentApi) getProgress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	view, err := api.progress.GetProgress(ctx.Request().Context(), claims.Subject, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *studentApi) markViewed(ctx echo.Context) error {
	var data progress.MarkViewed
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkViewed")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	p, err := api.progress.MarkLectureViewed(ctx.Request().Context(), claims.Subject, data.CourseID, data.LectureID)
	if err != nil {
		return errors.Wrap(err, "marking lecture viewed")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *studentApi) reset(ctx echo.Context) error {
	var data progress.Reset
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reset")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	p, err := api.progress.ResetProgress(ctx.Request().Context(), claims.Subject, data.CourseID)
	if err != nil {
		return errors.Wrap(err, "resetting progress")
	}
	return ctx.JSON(http.StatusOK, p)
}
