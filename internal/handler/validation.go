package handler

import (
	"copycorner/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the clock and weekday tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseClock(fl.Field().String())
		return ok
	}); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := model.NormalizeDay(fl.Field().String())
		return ok
	})
}
