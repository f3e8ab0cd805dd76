package sonarr

import "errors"

// Common errors returned by the Sonarr client.
var (
	// ErrInvalidConfig indicates the client was created with incomplete settings.
	ErrInvalidConfig = errors.New("invalid Sonarr configuration")

	// ErrUnsupportedVersion indicates the Sonarr instance is older than the
	// v3 API this client targets.
	ErrUnsupportedVersion = errors.New("unsupported Sonarr version")
)
