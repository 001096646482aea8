package domain

import "errors"

// ErrDuplicateKey is returned by backends when a write would violate a
// unique index. Callers should match it with errors.Is.
var ErrDuplicateKey = errors.New("duplicate key violates unique index")
