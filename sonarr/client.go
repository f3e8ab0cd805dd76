package sonarr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rs/zerolog"
	"golift.io/starr"
	"golift.io/starr/sonarr"
)

// MinimumVersion is the oldest Sonarr release known to serve the v3 API
// paths this client uses.
var MinimumVersion = semver.MustParse("3.0.0")

// Client wraps the starr Sonarr client with the fetches the bridge needs
type Client struct {
	api    SonarrAPI
	logger zerolog.Logger
}

// NewClient creates a new Sonarr client and verifies the connection and
// the reported version.
func NewClient(ctx context.Context, rawURL, apiKey string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: URL is required", ErrInvalidConfig)
	}

	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	config := starr.New(apiKey, rawURL, timeout)

	client := &Client{
		api:    sonarr.New(config),
		logger: logger,
	}

	status, err := client.GetSystemStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Sonarr: %w", err)
	}

	if err := checkVersion(status.Version); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("version", status.Version).
		Msg("Connected to Sonarr")

	return client, nil
}

// checkVersion rejects Sonarr instances older than MinimumVersion. Sonarr
// reports four-segment versions, so the build number is dropped before
// parsing. An unparseable version string is allowed through; development
// builds report versions semver cannot handle.
func checkVersion(version string) error {
	trimmed := version
	if parts := strings.SplitN(version, ".", 4); len(parts) == 4 {
		trimmed = strings.Join(parts[:3], ".")
	}

	parsed, err := semver.ParseTolerant(trimmed)
	if err != nil {
		return nil
	}

	if parsed.LT(MinimumVersion) {
		return fmt.Errorf("%w: %s (minimum %s)", ErrUnsupportedVersion, version, MinimumVersion)
	}

	return nil
}

// GetSystemStatus retrieves the application status from Sonarr
func (c *Client) GetSystemStatus(ctx context.Context) (*sonarr.SystemStatus, error) {
	status, err := c.api.GetSystemStatusContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get system status: %w", err)
	}

	return status, nil
}

// GetApp retrieves the combined application datapoint: system status plus
// disk space for every mount.
func (c *Client) GetApp(ctx context.Context) (*App, error) {
	status, err := c.GetSystemStatus(ctx)
	if err != nil {
		return nil, err
	}

	disks, err := c.GetDiskSpace(ctx)
	if err != nil {
		return nil, err
	}

	return &App{Status: status, Disks: disks}, nil
}

// GetDiskSpace retrieves disk space records from Sonarr
func (c *Client) GetDiskSpace(ctx context.Context) ([]DiskSpace, error) {
	var disks []DiskSpace

	req := starr.Request{URI: "v3/diskspace"}
	if err := c.api.GetInto(ctx, req, &disks); err != nil {
		return nil, fmt.Errorf("failed to get disk space: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d disk space records from Sonarr", len(disks))

	return disks, nil
}

// GetCommands retrieves the currently known commands from Sonarr
func (c *Client) GetCommands(ctx context.Context) ([]*sonarr.CommandResponse, error) {
	commands, err := c.api.GetCommandsContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get commands: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d commands from Sonarr", len(commands))

	return commands, nil
}

// GetSeries retrieves all series from Sonarr
func (c *Client) GetSeries(ctx context.Context) ([]*sonarr.Series, error) {
	series, err := c.api.GetAllSeriesContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get series: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d series from Sonarr", len(series))

	return series, nil
}

// GetQueue retrieves the first page of the download queue with series and
// episode resources embedded.
func (c *Client) GetQueue(ctx context.Context, pageSize int) (*Queue, error) {
	params := make(url.Values)
	params.Set("page", "1")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("includeSeries", "true")
	params.Set("includeEpisode", "true")

	var queue Queue

	req := starr.Request{URI: "v3/queue", Query: params}
	if err := c.api.GetInto(ctx, req, &queue); err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d queue records from Sonarr", len(queue.Records))

	return &queue, nil
}

// GetUpcoming retrieves the calendar window covering the next days,
// starting at the beginning of today.
func (c *Client) GetUpcoming(ctx context.Context, days int) ([]*Episode, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, days)

	params := make(url.Values)
	params.Set("start", start.UTC().Format("2006-01-02"))
	params.Set("end", end.UTC().Format("2006-01-02"))
	params.Set("includeSeries", "true")
	params.Set("unmonitored", "false")

	var episodes []*Episode

	req := starr.Request{URI: "v3/calendar", Query: params}
	if err := c.api.GetInto(ctx, req, &episodes); err != nil {
		return nil, fmt.Errorf("failed to get calendar: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d upcoming episodes from Sonarr", len(episodes))

	return episodes, nil
}

// GetWantedMissing retrieves the first page of wanted/missing episodes,
// most recently aired first.
func (c *Client) GetWantedMissing(ctx context.Context, pageSize int) (*WantedMissing, error) {
	params := make(url.Values)
	params.Set("page", "1")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("sortKey", "airDateUtc")
	params.Set("sortDirection", "descending")
	params.Set("includeSeries", "true")

	var wanted WantedMissing

	req := starr.Request{URI: "v3/wanted/missing", Query: params}
	if err := c.api.GetInto(ctx, req, &wanted); err != nil {
		return nil, fmt.Errorf("failed to get wanted episodes: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d of %d wanted episodes from Sonarr", len(wanted.Records), wanted.TotalRecords)

	return &wanted, nil
}
