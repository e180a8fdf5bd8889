package hubness

import "errors"

// ErrNotFitted is returned by result accessors and query methods that are
// called before the required Fit/Estimate call.
var ErrNotFitted = errors.New("hubness: not fitted")
