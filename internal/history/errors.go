package history

import "errors"

// ErrUnsupportedDriver is returned for database drivers without a known dialect
var ErrUnsupportedDriver = errors.New("unsupported history driver")
