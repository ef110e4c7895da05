package sync

import (
	"time"

	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
// Anything at or above it is already in milliseconds.
const epochMillisThreshold = 10_000_000_000

// dateLayouts are tried in order when normalizing string dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// DateToEpochMillis normalizes a date value from the field-service API
// into midnight-UTC epoch milliseconds, the only date form the CRM
// accepts. Numeric values may be epoch seconds or epoch milliseconds;
// strings are parsed against known layouts. Unparsable values return
// ok=false; callers drop the property rather than failing the sync.
func DateToEpochMillis(value any) (int64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case int:
		return epochToMidnightMillis(int64(v)), true
	case int64:
		return epochToMidnightMillis(v), true
	case float64:
		return epochToMidnightMillis(int64(v)), true
	case string:
		if v == "" {
			return 0, false
		}
		for _, layout := range dateLayouts {
			t, err := time.Parse(layout, v)
			if err == nil {
				return midnightMillis(t), true
			}
		}
		logging.Warn().Str("value", v).Msg("Unparsable date value, dropping")
		return 0, false
	default:
		return 0, false
	}
}

func epochToMidnightMillis(epoch int64) int64 {
	if epoch >= epochMillisThreshold {
		epoch /= 1000
	}
	return midnightMillis(time.Unix(epoch, 0).UTC())
}

func midnightMillis(t time.Time) int64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Unix() * 1000
}
