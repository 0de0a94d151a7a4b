package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidations installs the custom binding rules on gin's validator.
// Field errors report json names.
func RegisterValidations() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		registerErr = v.RegisterValidation("vehicle_type", func(fl validator.FieldLevel) bool {
			return domain.VehicleType(fl.Field().String()).Valid()
		})
	})
	return registerErr
}

// InvalidFields lists the fields a binding error complains about; nil when err is not a validation failure
func InvalidFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

// MissingOnly reports whether every failure is a required rule
func MissingOnly(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Tag() != "required" {
			return false
		}
	}
	return true
}
