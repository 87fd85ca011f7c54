package service

import (
	"go-distribution-ws/internal/apperr"
	"go-distribution-ws/pkg/validator"
)

// validateRequest reports the first failed rule as a ValidationError.
func validateRequest(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return apperr.Validation("%s", validator.Describe(errs[0]))
	}
	return nil
}
