package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("invalid input")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInvalidConfidence  = errors.New("confidence must be between 0 and 100")
	ErrDuplicateIdentity  = errors.New("duplicate identity")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrServiceUnavailable = errors.New("upstream service unavailable")
)
