package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidListingURL = errors.New("invalid market listing URL")
)
