package coordinator

import (
	"time"

	starrsonarr "golift.io/starr/sonarr"

	"github.com/hassbridge/sonarrbridge/qbittorrent"
	"github.com/hassbridge/sonarrbridge/sonarr"
)

// Datapoint identifies one Sonarr collection the coordinator can fetch.
type Datapoint string

// Datapoints fetched from their respective endpoints. DatapointApp is
// always collected; the rest are enabled by the sensors that need them.
const (
	DatapointApp      Datapoint = "app"
	DatapointCommands Datapoint = "commands"
	DatapointQueue    Datapoint = "queue"
	DatapointSeries   Datapoint = "series"
	DatapointUpcoming Datapoint = "upcoming"
	DatapointWanted   Datapoint = "wanted"
)

// Datapoints lists every known datapoint in a stable order.
var Datapoints = []Datapoint{
	DatapointApp,
	DatapointCommands,
	DatapointQueue,
	DatapointSeries,
	DatapointUpcoming,
	DatapointWanted,
}

// Valid reports whether d names a known datapoint.
func (d Datapoint) Valid() bool {
	for _, dp := range Datapoints {
		if d == dp {
			return true
		}
	}

	return false
}

// Data is the snapshot produced by one refresh cycle. Fields for
// datapoints that were not enabled during the cycle are nil. A snapshot is
// never mutated after publication.
type Data struct {
	App       *sonarr.App
	Commands  []*starrsonarr.CommandResponse
	Queue     *sonarr.Queue
	Series    []*starrsonarr.Series
	Upcoming  []*sonarr.Episode
	Wanted    *sonarr.WantedMissing
	Transfers map[string]qbittorrent.Transfer
	Updated   time.Time
}

// Value returns the raw datapoint value by key, for expression
// environments and the HTTP API. Unknown datapoints return nil.
func (d *Data) Value(dp Datapoint) any {
	if d == nil {
		return nil
	}

	switch dp {
	case DatapointApp:
		return d.App
	case DatapointCommands:
		return d.Commands
	case DatapointQueue:
		return d.Queue
	case DatapointSeries:
		return d.Series
	case DatapointUpcoming:
		return d.Upcoming
	case DatapointWanted:
		return d.Wanted
	}

	return nil
}
