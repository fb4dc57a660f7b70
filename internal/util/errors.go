package util

import "errors"

var (
	ErrInvalidAPIKey = errors.New("invalid api key")
)
