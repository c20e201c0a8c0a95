package machine

import "errors"

var ErrNotFound = errors.New("machine not found")
