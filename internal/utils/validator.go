// Package utils provides utility functions used throughout the gateway.
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// videoIDRegex matches YouTube video identifiers
	videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{6,64}$`)
)

func init() {
	validate = validator.New()

	// Report fields by their query/json name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("video_id", validateVideoID)
}

// Validate performs validation on the given struct and returns validation errors.
func Validate(s any) error {
	return validate.Struct(s)
}

// validateVideoID checks that a path parameter looks like a video identifier.
func validateVideoID(fl validator.FieldLevel) bool {
	return videoIDRegex.MatchString(fl.Field().String())
}
