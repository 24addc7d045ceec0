package store

import (
	"time"

	"github.com/capitalize-ai/guest-messaging/internal/model"
)

// SeparatorLabel formats the date separator shown before a day's messages:
// "Today", "Yesterday", the weekday name within the current Sunday-started
// week, otherwise "Nov. 14". Days are taken in now's location.
func SeparatorLabel(t, now time.Time) string {
	t = t.In(now.Location())
	day := startOfDay(t)
	today := startOfDay(now)

	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	}

	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	if !day.Before(weekStart) && day.Before(weekStart.AddDate(0, 0, 7)) {
		return t.Format("Monday")
	}
	return t.Format("Jan. 2")
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return startOfDay(a.In(loc)).Equal(startOfDay(b.In(loc)))
}

// GroupByDay partitions an ordered message log into runs by calendar day,
// each labeled with its separator.
func GroupByDay(messages []model.Message, now time.Time) []model.DayGroup {
	var groups []model.DayGroup
	for i, m := range messages {
		if i == 0 || !SameDay(m.Timestamp, messages[i-1].Timestamp, now.Location()) {
			groups = append(groups, model.DayGroup{Label: SeparatorLabel(m.Timestamp, now)})
		}
		last := &groups[len(groups)-1]
		last.Messages = append(last.Messages, m)
	}
	return groups
}

// TimeLabel formats the time of day shown on bubbles and list rows.
func TimeLabel(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
