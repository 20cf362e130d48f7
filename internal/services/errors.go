package services

import "errors"

// Dashboard service errors
var (
	// Selection errors
	ErrTooManyRegions = errors.New("too many regions selected")
	ErrRegionTooLong  = errors.New("region name too long")

	// Export errors
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
