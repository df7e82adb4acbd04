package dialogue

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"
)

// clockParser only knows clock times. Date words ("tomorrow", "monday")
// would resolve to the base time's clock and must not count as a time.
var clockParser = func() *when.Parser {
	p := when.New(nil)
	p.Add(en.Hour(rules.Override), en.HourMinute(rules.Override))
	return p
}()

var namedTimes = map[string]string{
	"noon":     "12:00 PM",
	"midday":   "12:00 PM",
	"midnight": "12:00 AM",
}

// ExtractTime finds a clock time in free text and formats it as "08:00 AM".
// A bare number is not a time: the text needs a meridiem ("8 am"), a colon
// ("18:30") or a named time ("noon").
func ExtractTime(text string) (string, bool) {
	base := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	if r, err := clockParser.Parse(text, base); err == nil && r != nil {
		return formatClock(r.Time.Hour(), r.Time.Minute()), true
	}

	for _, word := range strings.Fields(strings.ToLower(text)) {
		if t, ok := namedTimes[strings.Trim(word, ".,!?")]; ok {
			return t, true
		}
	}
	return "", false
}

func formatClock(hour, minute int) string {
	meridiem := "AM"
	if hour >= 12 {
		meridiem = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%02d:%02d %s", hour, minute, meridiem)
}
