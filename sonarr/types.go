package sonarr

import (
	"fmt"
	"time"

	"golift.io/starr/sonarr"
)

// App bundles the always-collected application datapoint: the system status
// plus the disk space records for every mount Sonarr reports.
type App struct {
	Status *sonarr.SystemStatus
	Disks  []DiskSpace
}

// Name returns the application name reported by Sonarr.
func (a *App) Name() string {
	if a == nil || a.Status == nil || a.Status.AppName == "" {
		return "Sonarr"
	}

	return a.Status.AppName
}

// Version returns the version string reported by Sonarr.
func (a *App) Version() string {
	if a == nil || a.Status == nil {
		return ""
	}

	return a.Status.Version
}

// DiskSpace is one record from the diskspace endpoint.
type DiskSpace struct {
	Path       string `json:"path"`
	Label      string `json:"label"`
	FreeSpace  int64  `json:"freeSpace"`
	TotalSpace int64  `json:"totalSpace"`
}

// Queue is one page of the download queue with series and episode
// resources embedded in each record.
type Queue struct {
	Page         int            `json:"page"`
	PageSize     int            `json:"pageSize"`
	TotalRecords int            `json:"totalRecords"`
	Records      []*QueueRecord `json:"records"`
}

// QueueRecord is a single item in the download queue.
type QueueRecord struct {
	ID                      int64      `json:"id"`
	SeriesID                int64      `json:"seriesId"`
	EpisodeID               int64      `json:"episodeId"`
	Size                    float64    `json:"size"`
	Sizeleft                float64    `json:"sizeleft"`
	Title                   string     `json:"title"`
	Status                  string     `json:"status"`
	TrackedDownloadStatus   string     `json:"trackedDownloadStatus"`
	TrackedDownloadState    string     `json:"trackedDownloadState"`
	DownloadID              string     `json:"downloadId"`
	Protocol                string     `json:"protocol"`
	DownloadClient          string     `json:"downloadClient"`
	EstimatedCompletionTime *time.Time `json:"estimatedCompletionTime,omitempty"`
	Series                  *SeriesRef `json:"series"`
	Episode                 *Episode   `json:"episode"`
}

// Name builds the display name for a queue record, preferring the embedded
// series title and episode identifier over the raw release title.
func (r *QueueRecord) Name() string {
	if r.Series != nil && r.Episode != nil {
		return fmt.Sprintf("%s %s", r.Series.Title, r.Episode.Identifier())
	}

	return r.Title
}

// SizeRemaining returns the fraction of the download still outstanding.
// An unknown size counts as fully remaining.
func (r *QueueRecord) SizeRemaining() float64 {
	if r.Size == 0 {
		return 1
	}

	return r.Sizeleft / r.Size
}

// SeriesRef is the embedded series resource on queue, calendar and
// wanted records.
type SeriesRef struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	TitleSlug string `json:"titleSlug"`
}

// Episode is an episode resource as returned by the calendar and
// wanted/missing endpoints, optionally with its series embedded.
type Episode struct {
	ID            int64      `json:"id"`
	SeriesID      int64      `json:"seriesId"`
	EpisodeFileID int64      `json:"episodeFileId"`
	SeasonNumber  int        `json:"seasonNumber"`
	EpisodeNumber int        `json:"episodeNumber"`
	Title         string     `json:"title"`
	AirDate       string     `json:"airDate"`
	AirDateUTC    *time.Time `json:"airDateUtc,omitempty"`
	HasFile       bool       `json:"hasFile"`
	Monitored     bool       `json:"monitored"`
	Series        *SeriesRef `json:"series"`
}

// Identifier returns the SxxExx identifier for the episode.
func (e *Episode) Identifier() string {
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// SeriesTitle returns the embedded series title, if present.
func (e *Episode) SeriesTitle() string {
	if e.Series == nil {
		return ""
	}

	return e.Series.Title
}

// Airs returns the air date for display: the plain airDate when Sonarr
// sends one, otherwise the UTC timestamp.
func (e *Episode) Airs() string {
	if e.AirDate != "" {
		return e.AirDate
	}

	if e.AirDateUTC != nil {
		return e.AirDateUTC.UTC().Format(time.RFC3339)
	}

	return ""
}

// WantedMissing is one page of the wanted/missing endpoint.
type WantedMissing struct {
	Page         int        `json:"page"`
	PageSize     int        `json:"pageSize"`
	TotalRecords int        `json:"totalRecords"`
	Records      []*Episode `json:"records"`
}
