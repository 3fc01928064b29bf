package match

import "errors"

var (
	ErrInvalidParam = errors.New("the param is invalid")
	ErrTimeout      = errors.New("timeout")
	ErrShutdown     = errors.New("order book is shutting down")
	ErrOverfill     = errors.New("order cannot be filled for more than its remaining quantity")
	ErrSequenceGap  = errors.New("sequence gap detected")
)
