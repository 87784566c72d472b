// Package moneypkg provides common money amount related functionality for apps.
package moneypkg

import (
	"errors"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MinAmount is the smallest amount accepted by the money endpoints.
var MinAmount = decimal.RequireFromString("0.01")

// IsValidAmount returns true if the amount is at least MinAmount.
func IsValidAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(MinAmount)
}

// DecimalValue lets validator see decimal.Decimal fields as their string form.
func DecimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}

	return nil
}

// ValidDecimal validates that the field is a decimal not lower than the tag
// parameter, e.g. `binding:"decimal=0.01"`.
var ValidDecimal validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	if fl.Param() == "" {
		return true
	}

	min, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}

	return d.GreaterThanOrEqual(min)
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators adds the decimal type and the "decimal" tag to gin's validator.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("unexpected binding validator engine")
			return
		}

		v.RegisterCustomTypeFunc(DecimalValue, decimal.Decimal{})
		registerErr = v.RegisterValidation("decimal", ValidDecimal)
	})

	return registerErr
}
