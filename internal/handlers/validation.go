package handlers

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the decimal binding tags to gin's validator:
//
//	decimalgt0   amount must be strictly positive
//	decimalgte0  amount must not be negative
func registerValidators() error {
	var err error
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterCustomTypeFunc(decimalAsString, decimal.Decimal{})
		if err = v.RegisterValidation("decimalgt0", decimalSign(func(d decimal.Decimal) bool { return d.IsPositive() })); err != nil {
			return
		}
		err = v.RegisterValidation("decimalgte0", decimalSign(func(d decimal.Decimal) bool { return !d.IsNegative() }))
	})
	return err
}

func decimalAsString(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func decimalSign(accept func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return accept(d)
	}
}
