package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")

	// ErrModelNotFitted is returned by recommendation queries issued before
	// the first successful fit.
	ErrModelNotFitted = errors.New("model not fitted")

	// ErrFitInProgress is returned when a fit is requested while another fit
	// of the same model is still running.
	ErrFitInProgress = errors.New("model fit already in progress")
)
