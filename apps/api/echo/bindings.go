package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core/course"
)

// Catalog query params
const (
	categoryParam = "category"
	levelParam    = "level"
	languageParam = "primaryLanguage"
	sortByParam   = "sortBy"
)

// queryList reads a query param given as a comma separated list, repeated, or both:
// ?level=beginner,advanced&level=intermediate
func queryList(ctx echo.Context, param string) []string {
	vals, ok := ctx.QueryParams()[param]
	if !ok {
		return nil
	}
	list := make([]string, 0, len(vals))
	for _, val := range vals {
		for _, item := range strings.Split(val, ",") {
			if item = strings.TrimSpace(item); item != "" {
				list = append(list, item)
			}
		}
	}
	return list
}

func bindQueryFilter(ctx echo.Context) course.QueryFilter {
	filter := course.QueryFilter{
		Categories: queryList(ctx, categoryParam),
		Levels:     queryList(ctx, levelParam),
		Languages:  queryList(ctx, languageParam),
		SortBy:     ctx.QueryParam(sortByParam),
	}
	filter.Clean()
	return filter
}
