package switchback

import "errors"

var (
	ErrBadConfig   = errors.New("bad config")
	ErrExists      = errors.New("already exists")
	ErrFrozen      = errors.New("frozen")
	ErrMissingData = errors.New("missing data")
	ErrNotExist    = errors.New("not exist")
	ErrNotValid    = errors.New("invalid")
	ErrUnexpected  = errors.New("unexpected")
)
