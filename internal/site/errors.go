package site

import "errors"

var (
	// ErrDuplicateName is returned when a site name is already registered.
	ErrDuplicateName = errors.New("duplicate site name")

	// ErrUnresolvedSite is returned when a site is used before it was resolved against a grid.
	ErrUnresolvedSite = errors.New("site not resolved")

	// ErrInvalidCapacity is returned when a site's installed capacity is not positive.
	ErrInvalidCapacity = errors.New("invalid site capacity")

	// ErrInvalidSite is returned for any other malformed site declaration.
	ErrInvalidSite = errors.New("invalid site")
)
