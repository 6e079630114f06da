// Package time formats transfer durations and throughput for log and CLI output.
package time

import (
	"fmt"
	"strings"
	"time"
)

// ShortDur shortens the string representation of a time.Duration from d.String().
func ShortDur(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB"}

// HumanBytes renders n using binary units, e.g. 1536 -> "1.5 KiB".
func HumanBytes(n int64) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n)
	unit := 0
	for v >= 1024 && unit < len(byteUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[unit])
}

// Rate renders the average throughput of n bytes over d.
// A non-positive duration yields "n/a".
func Rate(n int64, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	perSecond := int64(float64(n) / d.Seconds())
	return HumanBytes(perSecond) + "/s"
}
