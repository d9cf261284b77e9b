package handlers

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// symbolPattern accepts BASE-QUOTE instrument names, uppercase only.
var symbolPattern = regexp.MustCompile(`^[A-Z]+-[A-Z]+$`)

// RegisterValidators installs the custom binding rules on gin's validator
// engine and makes field errors report JSON names. Call once during router
// setup, before any request binds.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("tradingsymbol", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(fl.Field().String())
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
