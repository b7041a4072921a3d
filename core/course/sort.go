package course

import (
	"sort"
	"strings"
)

// SortCourses sorts the courses in place by the given sort key (DefaultSort if unknown). Ties are broken by ID.
func SortCourses(courses []Course, sortBy string) {
	if !isSortKey(sortBy) {
		sortBy = DefaultSort
	}
	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		var cmp int
		switch sortBy {
		case SortPriceLowToHigh:
			cmp = a.Pricing.Cmp(b.Pricing)
		case SortPriceHighToLow:
			cmp = b.Pricing.Cmp(a.Pricing)
		case SortTitleAToZ:
			cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case SortTitleZToA:
			cmp = strings.Compare(strings.ToLower(b.Title), strings.ToLower(a.Title))
		}
		if cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
}

func sortNewestFirst(courses []Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		if !courses[i].Date.Equal(courses[j].Date) {
			return courses[i].Date.After(courses[j].Date)
		}
		return courses[i].ID < courses[j].ID
	})
}
