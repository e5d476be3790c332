package service

import "errors"

var (
	// ErrInvalidRequest is returned when neither an account id nor new account data is given.
	ErrInvalidRequest = errors.New("account_id or proxy/ios_profile/label is required")
	// ErrAccountNotFound is returned when the account id does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrLoginActive is returned when the account already has a running or waiting job.
	ErrLoginActive = errors.New("login already active for account")
	// ErrJobNotFound is returned when the account has no login job.
	ErrJobNotFound = errors.New("no login job for account")
)
