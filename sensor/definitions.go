package sensor

import (
	"fmt"
	"strings"

	"github.com/hassbridge/sonarrbridge/coordinator"
)

// unitGigabytes matches the unit Home Assistant uses for data sizes.
const unitGigabytes = "GB"

// Builtins returns the built-in sensor definitions. Only the upcoming
// sensor is enabled by default; the rest are opt-in.
func Builtins() []*Definition {
	return []*Definition{
		commandsSensor(),
		diskspaceSensor(),
		queueSensor(),
		seriesSensor(),
		upcomingSensor(),
		wantedSensor(),
	}
}

// commandsSensor counts the commands Sonarr is currently running, with one
// attribute per command name holding its state.
func commandsSensor() *Definition {
	return &Definition{
		Key:        "commands",
		Name:       "Commands",
		Icon:       "mdi:code-braces",
		Unit:       "Commands",
		StateClass: "measurement",
		Datapoints: []coordinator.Datapoint{coordinator.DatapointCommands},
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil || data.Commands == nil {
				return nil, false
			}

			return len(data.Commands), true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			attrs := make(map[string]string)
			if data == nil {
				return attrs
			}

			for _, command := range data.Commands {
				attrs[command.Name] = command.Status
			}

			return attrs
		},
	}
}

// diskspaceSensor reports the total free space across all of Sonarr's
// mounts, with a per-mount breakdown in the attributes. It reads the
// always-collected app datapoint and needs no extra one.
func diskspaceSensor() *Definition {
	return &Definition{
		Key:        "diskspace",
		Name:       "Disk Space",
		Icon:       "mdi:harddisk",
		Unit:       unitGigabytes,
		StateClass: "measurement",
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil || data.App == nil {
				return nil, false
			}

			var totalFree int64
			for _, disk := range data.App.Disks {
				totalFree += disk.FreeSpace
			}

			return fmt.Sprintf("%.2f", gigabytes(totalFree)), true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			attrs := make(map[string]string)
			if data == nil || data.App == nil {
				return attrs
			}

			for _, disk := range data.App.Disks {
				attrs[disk.Path] = formatDisk(disk.FreeSpace, disk.TotalSpace, unitGigabytes)
			}

			return attrs
		},
	}
}

// queueSensor counts the download queue, with per-item percent complete in
// the attributes. When torrent transfer data is available the attribute
// also carries the live download speed and ETA.
func queueSensor() *Definition {
	return &Definition{
		Key:        "queue",
		Name:       "Queue",
		Icon:       "mdi:download",
		Unit:       "Episodes",
		StateClass: "measurement",
		Datapoints: []coordinator.Datapoint{coordinator.DatapointQueue},
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil || data.Queue == nil {
				return nil, false
			}

			return len(data.Queue.Records), true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			attrs := make(map[string]string)
			if data == nil || data.Queue == nil {
				return attrs
			}

			for _, record := range data.Queue.Records {
				pct := 100 * (1 - record.SizeRemaining())
				value := formatPercent(pct)

				if transfer, ok := data.Transfers[strings.ToUpper(record.DownloadID)]; ok && transfer.DlSpeed > 0 {
					if eta := transfer.HumanETA(); eta != "" {
						value = fmt.Sprintf("%s (%s, ETA %s)", value, transfer.HumanSpeed(), eta)
					} else {
						value = fmt.Sprintf("%s (%s)", value, transfer.HumanSpeed())
					}
				}

				attrs[record.Name()] = value
			}

			return attrs
		},
	}
}

// seriesSensor counts the series in the library, with downloaded/total
// episode counts per series in the attributes.
func seriesSensor() *Definition {
	return &Definition{
		Key:        "series",
		Name:       "Shows",
		Icon:       "mdi:television",
		Unit:       "Series",
		StateClass: "measurement",
		Datapoints: []coordinator.Datapoint{coordinator.DatapointSeries},
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil || data.Series == nil {
				return nil, false
			}

			return len(data.Series), true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			attrs := make(map[string]string)
			if data == nil {
				return attrs
			}

			for _, series := range data.Series {
				var downloaded, episodes int
				if series.Statistics != nil {
					downloaded = series.Statistics.EpisodeFileCount
					episodes = series.Statistics.EpisodeCount
				}

				attrs[series.Title] = fmt.Sprintf("%d/%d Episodes", downloaded, episodes)
			}

			return attrs
		},
	}
}

// upcomingSensor counts the episodes airing in the calendar window, keyed
// by series title in the attributes.
func upcomingSensor() *Definition {
	return &Definition{
		Key:            "upcoming",
		Name:           "Upcoming",
		Icon:           "mdi:television",
		Unit:           "Episodes",
		StateClass:     "measurement",
		EnabledDefault: true,
		Datapoints:     []coordinator.Datapoint{coordinator.DatapointUpcoming},
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil || data.Upcoming == nil {
				return nil, false
			}

			return len(data.Upcoming), true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			attrs := make(map[string]string)
			if data == nil {
				return attrs
			}

			for _, episode := range data.Upcoming {
				attrs[episode.SeriesTitle()] = episode.Identifier()
			}

			return attrs
		},
	}
}

// wantedSensor reports the total number of wanted/missing episodes, with
// air dates for the most recent page in the attributes.
func wantedSensor() *Definition {
	return &Definition{
		Key:        "wanted",
		Name:       "Wanted",
		Icon:       "mdi:television",
		Unit:       "Episodes",
		StateClass: "measurement",
		Datapoints: []coordinator.Datapoint{coordinator.DatapointWanted},
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil || data.Wanted == nil {
				return nil, false
			}

			return data.Wanted.TotalRecords, true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			attrs := make(map[string]string)
			if data == nil || data.Wanted == nil {
				return attrs
			}

			for _, episode := range data.Wanted.Records {
				name := fmt.Sprintf("%s %s", episode.SeriesTitle(), episode.Identifier())
				attrs[name] = episode.Airs()
			}

			return attrs
		},
	}
}
