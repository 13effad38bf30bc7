package handler

import (
	"errors"
	"net/http"
	"reflect"

	"motorepuestos/internal/apierror"
	"motorepuestos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// statusFor maps service sentinel errors to HTTP status codes. Anything
// not recognized is treated as a bad request so store failures surface
// as a generic client error rather than a 500 with internals attached.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, service.ErrShiftNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateShift),
		errors.Is(err, service.ErrOutOfSequence),
		errors.Is(err, service.ErrShiftNotActive),
		errors.Is(err, service.ErrDayAlreadyFinalized),
		errors.Is(err, service.ErrDayNotFinalizable):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func abortWith(c *gin.Context, err error) {
	c.JSON(statusFor(err), apierror.New(err.Error()))
}
