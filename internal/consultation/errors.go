package consultation

import "errors"

var (
	ErrNotFound    = errors.New("consultation not found")
	ErrStepGuard   = errors.New("cannot advance")
	ErrBusy        = errors.New("a request for this consultation is already in progress")
	ErrNoDiagnosis = errors.New("consultation has no diagnosis yet")
	ErrValidation  = errors.New("invalid input")
)
