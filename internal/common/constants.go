package common

const (
	// Concurrency constants
	MaxConcurrencyLimit = 8

	// File operation constants
	DefaultDirPermissions = 0755
)
