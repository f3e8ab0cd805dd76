package sensor

import "fmt"

const bytesPerGiB = 1 << 30

// gigabytes converts a byte count to binary gigabytes.
func gigabytes(b int64) float64 {
	return float64(b) / bytesPerGiB
}

// formatDisk renders one disk space attribute: "free/totalGB (usage%)",
// where usage is the free share of the disk.
func formatDisk(free, total int64, unit string) string {
	freeGB := gigabytes(free)
	totalGB := gigabytes(total)

	var usage float64
	if total > 0 {
		usage = float64(free) / float64(total) * 100
	}

	return fmt.Sprintf("%.2f/%.2f%s (%.2f%%)", freeGB, totalGB, unit, usage)
}

// formatPercent renders a 0-100 percentage with two decimals.
func formatPercent(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}
