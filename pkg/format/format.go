package format

import (
	"fmt"
	"time"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// FileSize renders a byte count as a human string: "500 B", "2.00 KB",
// "5.00 MB", "1.50 GB". Two fraction digits, fixed decimal point,
// locale-independent.
func FileSize(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d B", n)
	case n < mib:
		return fmt.Sprintf("%.2f KB", float64(n)/kib)
	case n < gib:
		return fmt.Sprintf("%.2f MB", float64(n)/mib)
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	}
}

// Timestamp renders epoch seconds as "YYYY-MM-DD HH:MM:SS" in UTC.
func Timestamp(epoch int64) string {
	return time.Unix(epoch, 0).UTC().Format("2006-01-02 15:04:05")
}
