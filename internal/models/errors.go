package models

import "errors"

var (
	ErrMissingParam = errors.New("missing param")
	ErrBadParam     = errors.New("param is not a number")
)
