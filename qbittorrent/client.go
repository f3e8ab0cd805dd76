package qbittorrent

import (
	"context"
	"fmt"
	"strings"

	"github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
)

// Client wraps the qBittorrent API client
type Client struct {
	client *qbittorrent.Client
	logger zerolog.Logger
}

// NewClient creates a new qBittorrent client
func NewClient(ctx context.Context, url, username, password string, logger zerolog.Logger) (*Client, error) {
	// Create client with credentials
	client := qbittorrent.NewClient(qbittorrent.Config{
		Host:     url,
		Username: username,
		Password: password,
	})

	// Test connection by logging in
	if err := client.LoginCtx(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to qBittorrent: %w", err)
	}

	return &Client{
		client: client,
		logger: logger,
	}, nil
}

// GetTransfers retrieves transfer details for all torrents, keyed by
// uppercase info hash. Sonarr reports download IDs as uppercase hashes.
func (c *Client) GetTransfers(ctx context.Context) (map[string]Transfer, error) {
	torrents, err := c.client.GetTorrentsCtx(ctx, qbittorrent.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get torrents: %w", err)
	}

	c.logger.Debug().Msgf("Retrieved %d torrents from qBittorrent", len(torrents))

	transfers := make(map[string]Transfer, len(torrents))
	for _, t := range torrents {
		transfers[strings.ToUpper(t.Hash)] = Transfer{
			Hash:     t.Hash,
			Name:     t.Name,
			Progress: t.Progress,
			DlSpeed:  t.DlSpeed,
			ETA:      t.ETA,
			State:    string(t.State),
		}
	}

	return transfers, nil
}
