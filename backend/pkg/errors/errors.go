package errors

import "errors"

// ErrOptimisticLock the row was changed by another writer since it was read
var ErrOptimisticLock = errors.New("record was modified concurrently, reload and retry")
