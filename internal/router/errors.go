package router

import "errors"

// Sentinel kinds for routing errors.
var (
	ErrInvalidTable = errors.New("invalid route table")
	ErrViewLoad     = errors.New("view load failed")
	ErrUnknownRoute = errors.New("route not in table")
)
