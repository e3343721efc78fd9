// Package recurrence computes the next occurrence of a recurring post. The
// calculator is pure: given the just-published post and the current time it
// either yields a fully-populated scheduled successor or reports that the
// series is finished. It never touches the store or the clock.
//
// Month arithmetic: adding one month to a day-of-month that does not exist in
// the target month clamps to the last valid day of that month (Jan 31 ->
// Feb 28/29, never Mar 2/3). Time-of-day is preserved for all frequencies.
package recurrence

import (
	"time"

	"github.com/NimrodTheDev/Social-Media-Manager/internal/domain"
)

// Next applies the recurrence rules to a just-published post and returns its
// successor as a new scheduled post, or false when no occurrence should be
// spawned. The decision sequence, first match wins:
//
//  1. recurrence disabled
//  2. repeat-until already passed
//  3. repeat-count reached by this occurrence
//  4. unknown frequency
//  5. computed next due time beyond repeat-until
//
// The successor copies account, content, references and media; carries the
// recurrence descriptor forward; references the series root; and increments
// the 1-based occurrence index. Its ID is left empty for the store to assign.
func Next(p *domain.Post, now time.Time) (*domain.Post, bool) {
	if !p.RepeatEnabled {
		return nil, false
	}
	if p.RepeatUntil != nil && p.RepeatUntil.Before(now) {
		return nil, false
	}
	if p.RepeatCount > 0 && p.Occurrence >= p.RepeatCount {
		return nil, false
	}

	base := baseTime(p, now)
	next, ok := advance(base, p.RepeatFrequency)
	if !ok {
		return nil, false
	}
	if p.RepeatUntil != nil && next.After(*p.RepeatUntil) {
		return nil, false
	}

	root := p.RootID()
	child := &domain.Post{
		AccountID:   p.AccountID,
		Mode:        p.Mode,
		Body:        p.Body,
		Segments:    cloneStrings(p.Segments),
		InReplyToID: cloneStr(p.InReplyToID),
		QuotedID:    cloneStr(p.QuotedID),
		Media:       cloneStrings(p.Media),

		Status:      domain.StatusScheduled,
		ScheduledAt: &next,

		RepeatEnabled:   true,
		RepeatFrequency: p.RepeatFrequency,
		RepeatUntil:     cloneTime(p.RepeatUntil),
		RepeatCount:     p.RepeatCount,
		ParentID:        &root,
		Occurrence:      p.Occurrence + 1,
	}
	return child, true
}

// baseTime is the anchor the next due time is computed from: the post's
// scheduled time, falling back to its publication time, then to now.
func baseTime(p *domain.Post, now time.Time) time.Time {
	if p.ScheduledAt != nil {
		return *p.ScheduledAt
	}
	if p.PostedAt != nil {
		return *p.PostedAt
	}
	return now
}

// advance steps t forward by one frequency unit.
func advance(t time.Time, freq domain.RepeatFrequency) (time.Time, bool) {
	switch freq {
	case domain.RepeatDaily:
		return t.AddDate(0, 0, 1), true
	case domain.RepeatWeekly:
		return t.AddDate(0, 0, 7), true
	case domain.RepeatMonthly:
		return addMonthClamped(t), true
	default:
		return time.Time{}, false
	}
}

// addMonthClamped adds one calendar month, clamping the day-of-month to the
// last valid day of the target month. time.AddDate would normalize Jan 31 +
// 1 month to Mar 2/3, which is not what a monthly schedule means.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysIn(year, month); day > last {
		day = last
	}
	h, m, s := t.Clock()
	return time.Date(year, month, day, h, m, s, t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
