package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

var (
	pricingTag  = "pricing"
	pricingText = "price cannot be negative"

	lectureIDsTag  = "uniquelectures"
	lectureIDsText = "lecture ids must be unique"
)

// InitValidators registers the course validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(courseStructValidation, NewCourse{}, UpdateCourse{})
	core.RegisterCustomTranslation(validate, translator, pricingTag, pricingText)
	core.RegisterCustomTranslation(validate, translator, lectureIDsTag, lectureIDsText)
}

// courseStructValidation does struct level validation on NewCourse and UpdateCourse.
func courseStructValidation(sl validator.StructLevel) {
	var nc NewCourse
	switch c := sl.Current().Interface().(type) {
	case NewCourse:
		nc = c
	case UpdateCourse:
		nc = NewCourse(c)
	default:
		return
	}

	if nc.Pricing.IsNegative() {
		sl.ReportError(nc.Pricing, "pricing", "Pricing", pricingTag, "")
	}

	seen := make(map[string]struct{}, len(nc.Curriculum))
	for _, lec := range nc.Curriculum {
		if lec.ID == "" {
			continue
		}
		if _, ok := seen[lec.ID]; ok {
			sl.ReportError(nc.Curriculum, "curriculum", "Curriculum", lectureIDsTag, "")
			return
		}
		seen[lec.ID] = struct{}{}
	}
}
