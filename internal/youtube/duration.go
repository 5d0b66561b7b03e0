package youtube

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDuration converts an ISO-8601 duration such as "PT1H2M3S" into
// seconds. Only the time designators hours, minutes and seconds are
// recognized; date components do not occur in video runtimes.
func ParseDuration(iso string) (int, error) {
	if !strings.HasPrefix(iso, "PT") {
		return 0, fmt.Errorf("invalid duration format: %q", iso)
	}

	var total int
	num := ""
	for _, c := range iso[2:] {
		switch {
		case c >= '0' && c <= '9':
			num += string(c)
		case c == 'H' || c == 'M' || c == 'S':
			if num == "" {
				return 0, fmt.Errorf("invalid duration format: %q", iso)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("invalid duration format: %q", iso)
			}
			switch c {
			case 'H':
				total += n * 3600
			case 'M':
				total += n * 60
			case 'S':
				total += n
			}
			num = ""
		default:
			return 0, fmt.Errorf("invalid duration format: %q", iso)
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration format: %q", iso)
	}

	return total, nil
}

// FormatDuration renders a runtime in seconds as "H:MM:SS", or "M:SS" for
// runtimes under an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// BatchIDs splits ids into chunks of at most size.
func BatchIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
