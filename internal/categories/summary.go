package categories

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teemow/calhighlight/internal/calendar"
)

const (
	// MaxDigestRunes bounds the calendar digest included in prompts.
	MaxDigestRunes = 8000

	topEventTypes   = 10
	digestTypes     = 50
	digestSampleMax = 30
)

// DateRange is an inclusive pair of YYYY-MM-DD dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CalendarDataSummary describes the calendar history behind an initial
// suggestion round.
type CalendarDataSummary struct {
	TotalEvents   int       `json:"totalEvents"`
	DateRange     DateRange `json:"dateRange"`
	TopEventTypes []string  `json:"topEventTypes"`
}

type titleCount struct {
	title string
	count int
}

// countTitles tallies appointment titles, most frequent first. Titles with
// equal counts keep the order in which they were first seen.
func countTitles(appointments []calendar.Appointment) []titleCount {
	index := make(map[string]int)
	var counts []titleCount
	for _, a := range appointments {
		i, ok := index[a.Summary]
		if !ok {
			i = len(counts)
			index[a.Summary] = i
			counts = append(counts, titleCount{title: a.Summary})
		}
		counts[i].count++
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	return counts
}

// Summarize builds the summary of appointments fetched for [start, end].
func Summarize(appointments []calendar.Appointment, start, end time.Time) CalendarDataSummary {
	counts := countTitles(appointments)
	if len(counts) > topEventTypes {
		counts = counts[:topEventTypes]
	}
	top := make([]string, 0, len(counts))
	for _, c := range counts {
		top = append(top, c.title)
	}
	return CalendarDataSummary{
		TotalEvents: len(appointments),
		DateRange: DateRange{
			Start: calendar.FormatDate(start),
			End:   calendar.FormatDate(end),
		},
		TopEventTypes: top,
	}
}

// FormatForModel renders a digest of appointments of at most
// MaxDigestRunes runes: a frequency table of titles followed, when room
// remains, by an evenly spaced sample of individual events.
func FormatForModel(appointments []calendar.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total Events: %d\n\n", len(appointments))

	b.WriteString("Event Types (sorted by frequency):\n")
	counts := countTitles(appointments)
	if len(counts) > digestTypes {
		counts = counts[:digestTypes]
	}
	for _, c := range counts {
		fmt.Fprintf(&b, "- \"%s\" (%d %s)\n", c.title, c.count, plural(c.count, "occurrence"))
	}

	length := utf8.RuneCountInString(b.String())
	if length < MaxDigestRunes/2 {
		header := "\n\nSample Events (for additional context):\n"
		b.WriteString(header)
		length += utf8.RuneCountInString(header)

		n := len(appointments)
		step := max(1, n/max(1, min(digestSampleMax, n)))
		for i := 0; i < n && length < MaxDigestRunes; i += step {
			line := formatSample(appointments[i]) + "\n"
			b.WriteString(line)
			length += utf8.RuneCountInString(line)
		}
	}

	return truncateRunes(b.String(), MaxDigestRunes)
}

func formatSample(a calendar.Appointment) string {
	start := a.StartTime.In(time.Local)
	end := a.EndTime.In(time.Local)

	line := fmt.Sprintf("  \"%s\" | %s %s-%s (%dmin)",
		a.Summary, start.Format(calendar.DateLayout), start.Format("15:04"), end.Format("15:04"), minutes(a))
	if a.Location != "" {
		line += " | Location: " + a.Location
	}
	if n := len(a.Attendees); n > 0 {
		line += fmt.Sprintf(" | %d %s", n, plural(n, "attendee"))
	}
	return line
}

func minutes(a calendar.Appointment) int {
	return int(math.Round(a.Duration().Minutes()))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}
