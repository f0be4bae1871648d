package utils

import "time"

// ISOWeek identifies an ISO-8601 week. The ISO year can differ from the
// calendar year near year boundaries.
type ISOWeek struct {
	Year int
	Week int
}

// ISOWeekOf returns the ISO week containing t.
func ISOWeekOf(t time.Time) ISOWeek {
	y, w := t.ISOWeek()
	return ISOWeek{Year: y, Week: w}
}

// Monday returns the Monday (00:00 UTC) of the ISO week. Jan 4 is always in
// ISO week 1, which anchors the calculation.
func (w ISOWeek) Monday() time.Time {
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	// Back up to the Monday of week 1.
	offset := (int(jan4.Weekday()) + 6) % 7
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (w.Week-1)*7)
}

// Sunday returns the Sunday of the ISO week.
func (w ISOWeek) Sunday() time.Time {
	return w.Monday().AddDate(0, 0, 6)
}

// AddWeeks shifts by a number of ISO weeks, resolving through the Monday
// anchor so week 53 boundaries come out right.
func (w ISOWeek) AddWeeks(delta int) ISOWeek {
	return ISOWeekOf(w.Monday().AddDate(0, 0, delta*7))
}

// Before reports strict ordering of two ISO weeks.
func (w ISOWeek) Before(other ISOWeek) bool {
	if w.Year != other.Year {
		return w.Year < other.Year
	}
	return w.Week < other.Week
}

// InClosedRange reports start <= w <= end.
func (w ISOWeek) InClosedRange(start, end ISOWeek) bool {
	return !w.Before(start) && !end.Before(w)
}

// Tournament-week schedule, all in UTC. For a tournament played in ISO week
// W: entries close Tuesday 10:00 of week W-1, the draw is published Friday
// 19:00 of week W-1, and the weekly ranking goes out Monday 20:00.

// EntryDeadline is Tuesday 10:00 UTC of the week before the tournament week.
func EntryDeadline(tournamentWeek ISOWeek) time.Time {
	prev := tournamentWeek.AddWeeks(-1)
	return prev.Monday().AddDate(0, 0, 1).Add(10 * time.Hour)
}

// DrawPublicationDeadline is Friday 19:00 UTC of the week before the
// tournament week.
func DrawPublicationDeadline(tournamentWeek ISOWeek) time.Time {
	prev := tournamentWeek.AddWeeks(-1)
	return prev.Monday().AddDate(0, 0, 4).Add(19 * time.Hour)
}

// RankingPublicationTime is Monday 20:00 UTC of the ranking week.
func RankingPublicationTime(rankingWeek ISOWeek) time.Time {
	return rankingWeek.Monday().Add(20 * time.Hour)
}
