package qbittorrent

import (
	"fmt"
	"time"
)

// infiniteETA is the sentinel value qBittorrent reports when the
// remaining time is unknown.
const infiniteETA = 8640000

// Transfer is the subset of torrent state used to enrich queue sensor
// attributes.
type Transfer struct {
	Hash     string
	Name     string
	Progress float64
	DlSpeed  int64
	ETA      int64
	State    string
}

// HumanSpeed formats the download speed for display.
func (t Transfer) HumanSpeed() string {
	const (
		kib = 1 << 10
		mib = 1 << 20
	)

	switch {
	case t.DlSpeed >= mib:
		return fmt.Sprintf("%.1f MiB/s", float64(t.DlSpeed)/mib)
	case t.DlSpeed >= kib:
		return fmt.Sprintf("%.1f KiB/s", float64(t.DlSpeed)/kib)
	default:
		return fmt.Sprintf("%d B/s", t.DlSpeed)
	}
}

// HumanETA formats the remaining time for display. Unknown ETAs return
// an empty string.
func (t Transfer) HumanETA() string {
	if t.ETA <= 0 || t.ETA >= infiniteETA {
		return ""
	}

	d := time.Duration(t.ETA) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}

	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}

	return fmt.Sprintf("%ds", int(d.Seconds()))
}
