package money

import "errors"

// ErrNegativeAmount is returned when normalizing a negative decimal.
// Stored amounts are unsigned; direction comes from the entry type.
var ErrNegativeAmount = errors.New("amount must not be negative")
