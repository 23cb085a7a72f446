package pricing

import "errors"

var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrBelowMinimum    = errors.New("quantity below minimum")
	ErrInvalidPrice    = errors.New("invalid price")
)
