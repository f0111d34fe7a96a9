package domain

import "errors"

var (
	ErrSpaceNotFound    = errors.New("space not found")
	ErrInvalidSpaceSize = errors.New("space has non-positive dimensions")
)
