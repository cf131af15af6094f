package domain

import (
	"errors"
	"fmt"
)

// InsufficientDataError reports a product whose history is too short (or
// absent) to build a usable demand series. The caller can recover by picking
// another product or waiting for more data.
type InsufficientDataError struct {
	ProductID string
	Days      int
	Required  int
}

func (e *InsufficientDataError) Error() string {
	if e.Days == 0 {
		return fmt.Sprintf("insufficient data for product %q: no sales records", e.ProductID)
	}
	return fmt.Sprintf("insufficient data for product %q: %d observed days, need %d",
		e.ProductID, e.Days, e.Required)
}

// ModelFitError reports that one forecasting backend could not fit a series.
// Other backends and other products are unaffected.
type ModelFitError struct {
	Variant ModelVariant
	Reason  string
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model %s failed to fit: %s", e.Variant, e.Reason)
}

// InvalidParameterError reports caller-supplied configuration outside the
// allowed ranges. It is raised before any computation starts.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// IsInsufficientData reports whether err wraps an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// IsModelFit reports whether err wraps a ModelFitError.
func IsModelFit(err error) bool {
	var target *ModelFitError
	return errors.As(err, &target)
}

// IsInvalidParameter reports whether err wraps an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}
