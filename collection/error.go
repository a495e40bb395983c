package collection

import "errors"

var (
	ErrDuplicateName   = errors.New("duplicate route name")
	ErrSnapshotVersion = errors.New("snapshot version mismatch")
)
