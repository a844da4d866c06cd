package service

import "errors"

var (
	ErrValidation     = errors.New("validation failed")
	ErrNotCompletable = errors.New("order has line items that are not fully purchased")
	ErrOrderNotOpen   = errors.New("order is not open")
)
