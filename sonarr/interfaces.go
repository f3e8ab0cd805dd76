package sonarr

import (
	"context"

	"golift.io/starr"
	"golift.io/starr/sonarr"
)

// SonarrAPI defines the starr operations the bridge uses. The starr Sonarr
// client satisfies it; tests substitute a mock.
type SonarrAPI interface {
	// Typed endpoints
	GetSystemStatusContext(ctx context.Context) (*sonarr.SystemStatus, error)
	GetCommandsContext(ctx context.Context) ([]*sonarr.CommandResponse, error)
	GetAllSeriesContext(ctx context.Context) ([]*sonarr.Series, error)

	// Raw access for endpoints that need embedded resources or lack
	// typed coverage in starr.
	GetInto(ctx context.Context, req starr.Request, output interface{}) error
}
