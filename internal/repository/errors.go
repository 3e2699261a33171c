package repository

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrGigNotFound         = errors.New("gig not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrChatNotFound        = errors.New("chat not found")
	ErrChatExists          = errors.New("chat already exists")
	ErrProjectNotFound     = errors.New("project not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrDuplicateReference  = errors.New("transaction reference already processed")
	ErrProfileNotFound     = errors.New("role profile not found")
	ErrSessionNotFound     = errors.New("session not found")
)
