package catalog

import "errors"

// ErrNotFound marks a lookup for a product or ingredient the menu service
// does not know about.
var ErrNotFound = errors.New("catalog item not found")
