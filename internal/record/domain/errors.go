package domain

import "errors"

var (
	ErrInvalidKey    = errors.New("invalid_record_key")
	ErrAlreadyExists = errors.New("record_already_exists")
	ErrNotFound      = errors.New("record_not_found")
	ErrStorage       = errors.New("storage_failure")
)
