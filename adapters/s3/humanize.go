package s3

import "fmt"

var byteUnits = []string{"KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders a size with binary units, e.g. "5.00 MB".
func FormatBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d bytes", n)
	}
	value := float64(n) / 1024
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, byteUnits[unit])
}
