package services

import (
	"fmt"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// RateEntry is one time-ranged rate for a position. EndDate is exclusive and
// empty for an open-ended interval.
type RateEntry struct {
	ID            string  `json:"id"`
	Position      string  `json:"position"`
	Rate          float64 `json:"rate"`
	EffectiveDate string  `json:"effective_date"`
	EndDate       string  `json:"end_date,omitempty"`
}

// covers reports whether the [EffectiveDate, EndDate) interval contains day.
func (r RateEntry) covers(day string) bool {
	return r.EffectiveDate <= day && (r.EndDate == "" || day < r.EndDate)
}

func (r RateEntry) overlaps(o RateEntry) bool {
	// Two half-open intervals overlap when each starts before the other ends.
	aBeforeBEnd := o.EndDate == "" || r.EffectiveDate < o.EndDate
	bBeforeAEnd := r.EndDate == "" || o.EffectiveDate < r.EndDate
	return aBeforeBEnd && bBeforeAEnd
}

// Validate checks a single entry in isolation.
func (r RateEntry) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Position, validation.Required),
		validation.Field(&r.Rate, validation.Min(0.0)),
		validation.Field(&r.EffectiveDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&r.EndDate, validation.Date(DateLayout),
			validation.When(r.EndDate != "", validation.By(func(any) error {
				if r.EndDate <= r.EffectiveDate {
					return fmt.Errorf("must be after effective_date")
				}
				return nil
			}))),
	)
}

// RateSchedule indexes rate entries by position.
type RateSchedule map[string][]RateEntry

// NewRateSchedule groups entries by position, ordered by effective date.
func NewRateSchedule(entries []RateEntry) RateSchedule {
	s := make(RateSchedule)
	for _, e := range entries {
		s[e.Position] = append(s[e.Position], e)
	}
	for _, list := range s {
		sort.Slice(list, func(i, j int) bool { return list[i].EffectiveDate < list[j].EffectiveDate })
	}
	return s
}

// Resolve returns the rate for position whose interval contains asOf. There is
// no fallback rate: a missing interval is ErrNoRateFound.
func (s RateSchedule) Resolve(position string, asOf time.Time) (float64, error) {
	day := FormatDate(asOf)
	for _, e := range s[position] {
		if e.covers(day) {
			return e.Rate, nil
		}
	}
	return 0, fmt.Errorf("position %q on %s: %w", position, day, ErrNoRateFound)
}

// CheckInsert validates that e can join the schedule without overlapping an
// existing interval for the same position.
func (s RateSchedule) CheckInsert(e RateEntry) error {
	if err := validationErr("rate entry", e.Validate()); err != nil {
		return err
	}
	for _, existing := range s[e.Position] {
		if existing.ID != "" && existing.ID == e.ID {
			continue
		}
		if e.overlaps(existing) {
			return fmt.Errorf("%q [%s, %s) overlaps [%s, %s): %w",
				e.Position, e.EffectiveDate, openEnd(e.EndDate),
				existing.EffectiveDate, openEnd(existing.EndDate), ErrRateOverlap)
		}
	}
	return nil
}

func openEnd(s string) string {
	if s == "" {
		return "∞"
	}
	return s
}

// LoadRateSchedule reads the whole rate schedule, or only the given positions.
func LoadRateSchedule(app core.App, positions ...string) (RateSchedule, error) {
	var records []*core.Record
	var err error
	if len(positions) == 0 {
		records, err = app.FindAllRecords("rate_schedule")
	} else {
		vals := make([]any, len(positions))
		for i, p := range positions {
			vals[i] = p
		}
		records, err = app.FindAllRecords("rate_schedule", dbx.In("position", vals...))
	}
	if err != nil {
		return nil, fmt.Errorf("load rate schedule: %w", err)
	}

	entries := make([]RateEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, rateFromRecord(r))
	}
	return NewRateSchedule(entries), nil
}

func rateFromRecord(r *core.Record) RateEntry {
	return RateEntry{
		ID:            r.Id,
		Position:      r.GetString("position"),
		Rate:          r.GetFloat("rate"),
		EffectiveDate: r.GetString("effective_date"),
		EndDate:       r.GetString("end_date"),
	}
}

// AddRate inserts a rate interval, rejecting overlaps for the same position.
func (eng *Engine) AddRate(entry RateEntry) (RateEntry, error) {
	unlock := eng.locks.lock("rates:" + entry.Position)
	defer unlock()

	err := eng.App.RunInTransaction(func(txApp core.App) error {
		schedule, err := LoadRateSchedule(txApp, entry.Position)
		if err != nil {
			return err
		}
		if err := schedule.CheckInsert(entry); err != nil {
			return err
		}

		col, err := txApp.FindCollectionByNameOrId("rate_schedule")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("position", entry.Position)
		r.Set("rate", entry.Rate)
		r.Set("effective_date", entry.EffectiveDate)
		r.Set("end_date", entry.EndDate)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save rate: %w", err)
		}
		entry.ID = r.Id
		return nil
	})
	if err != nil {
		return RateEntry{}, err
	}

	eng.logger().Info("rates: interval added",
		"position", entry.Position, "rate", entry.Rate,
		"effective", entry.EffectiveDate, "end", entry.EndDate)
	return entry, nil
}

// ResolveRate resolves a position's rate as of a date against the store.
func (eng *Engine) ResolveRate(position string, asOf time.Time) (float64, error) {
	schedule, err := LoadRateSchedule(eng.App, position)
	if err != nil {
		return 0, err
	}
	return schedule.Resolve(position, asOf)
}
