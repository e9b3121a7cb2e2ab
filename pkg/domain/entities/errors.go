package entities

import "errors"

var (
	// ErrUnsupportedDistribution is returned when a stage names a distribution
	// outside the supported set.
	ErrUnsupportedDistribution = errors.New("unsupported distribution")

	// ErrInvalidConfiguration is returned when a scenario cannot produce a
	// meaningful parameter table.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
