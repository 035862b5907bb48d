package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const hoursInDay = 24

// ConvertRelativeTime converts "now" and relative times ("-10m", "-1h", "-2d") to RFC3339 timestamps.
// Any other value is returned as it is and left for the server to interpret. Only a malformed relative
// time (a "-" prefixed value) errors.
func ConvertRelativeTime(timeStr string, now time.Time) (string, error) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "now" {
		return now.UTC().Format(time.RFC3339), nil
	}
	if !strings.HasPrefix(timeStr, "-") {
		return timeStr, nil
	}

	durationStr := timeStr[1:]
	if strings.HasSuffix(durationStr, "d") {
		days, err := strconv.ParseUint(strings.TrimSuffix(durationStr, "d"), 10, 16)
		if err != nil {
			return "", fmt.Errorf("invalid relative time format: %s", timeStr)
		}

		return now.UTC().Add(-time.Duration(days) * hoursInDay * time.Hour).Format(time.RFC3339), nil
	}

	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return "", fmt.Errorf("invalid relative time format: %s", timeStr)
	}

	return now.UTC().Add(-duration).Format(time.RFC3339), nil
}
