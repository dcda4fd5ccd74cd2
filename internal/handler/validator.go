package handler

import (
	"github.com/go-playground/validator/v10"
)

// BodyValidator adapts go-playground/validator to echo's Validator
// interface so handlers can call c.Validate(&req) on bound DTOs.
type BodyValidator struct {
	v *validator.Validate
}

func NewBodyValidator() *BodyValidator {
	return &BodyValidator{v: validator.New()}
}

// Validate checks the struct tags of a bound request body.  Handlers map a
// non-nil error to 422.
func (bv *BodyValidator) Validate(i interface{}) error {
	return bv.v.Struct(i)
}
