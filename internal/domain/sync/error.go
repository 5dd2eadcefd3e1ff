package sync

import "errors"

var (
	ErrInvalidResponseMode = errors.New("invalid sync response mode")
	ErrItemMismatch        = errors.New("update returned a different item")
)
