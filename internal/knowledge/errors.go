package knowledge

import "errors"

// ErrDuplicateURL is returned when a user already saved the same URL. The
// pre-check and the storage unique constraint both surface this condition.
var ErrDuplicateURL = errors.New("url already saved")

// ErrNotFound is returned for items that do not exist or belong to another
// user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("knowledge item not found")

// ErrFetchFailed wraps failures of the content-rendering service.
var ErrFetchFailed = errors.New("content fetch failed")
