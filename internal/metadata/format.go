package metadata

import (
	"regexp"
	"strconv"
	"strings"
)

var isoDuration = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// FormatDuration renders an ISO-8601 duration such as PT1H2M3S as
// "1h 2m 3s". Tokens without a time part render as "Unknown".
func FormatDuration(iso string) string {
	m := isoDuration.FindStringSubmatch(iso)
	if m == nil {
		return UnknownDuration
	}

	var parts []string
	for i, unit := range []string{"h", "m", "s"} {
		if m[i+1] != "" {
			parts = append(parts, m[i+1]+unit)
		}
	}
	return strings.Join(parts, " ")
}

// FormatViewCount abbreviates a count: 1234567 -> "1.2M", 1500 -> "1.5K".
func FormatViewCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return abbreviate(float64(n)/1_000_000) + "M"
	case n >= 1_000:
		return abbreviate(float64(n)/1_000) + "K"
	}
	return strconv.FormatInt(n, 10)
}

func abbreviate(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.Replace(s, ".0", "", 1)
}
