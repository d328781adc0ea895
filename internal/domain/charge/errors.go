package charge

import "errors"

var (
	ErrChargeRateNotFound = errors.New("charge rate not found")
	ErrInvalidChargeCode  = errors.New("invalid charge code")
)
