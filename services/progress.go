package services

import (
	"fmt"
	"math"
)

// ProgressMode is how a deliverable's earned value is measured. It is one of
// Gated, Measured or Manual.
type ProgressMode interface {
	modeName() string
}

// Gated credits the default percentage of the deliverable's current gate.
type Gated struct {
	Status string
}

// Measured credits a directly entered physical progress percentage. Status is
// still tracked for reporting but does not drive earned value.
type Measured struct {
	Status  string
	Percent float64
}

// Manual is a controller's direct assertion of earned hours, bypassing gates.
type Manual struct {
	Status string
	Hours  float64
}

func (Gated) modeName() string    { return "gated" }
func (Measured) modeName() string { return "measured" }
func (Manual) modeName() string   { return "manual" }

// StatusOf returns the gate status carried by any mode.
func StatusOf(m ProgressMode) string {
	switch v := m.(type) {
	case Gated:
		return v.Status
	case Measured:
		return v.Status
	case Manual:
		return v.Status
	}
	return ""
}

// ProgressFields is the flat wire and storage shape of a ProgressMode. Only
// the field of the mode in use is set.
type ProgressFields struct {
	Mode             string   `json:"mode"`
	Status           string   `json:"status"`
	PhysicalProgress *float64 `json:"physical_progress,omitempty"`
	EarnedHours      *float64 `json:"earned_hours,omitempty"`
}

// FlattenProgress renders a mode in its flat shape.
func FlattenProgress(m ProgressMode) ProgressFields {
	switch v := m.(type) {
	case Measured:
		return ProgressFields{Mode: "measured", Status: v.Status, PhysicalProgress: &v.Percent}
	case Manual:
		return ProgressFields{Mode: "manual", Status: v.Status, EarnedHours: &v.Hours}
	case Gated:
		return ProgressFields{Mode: "gated", Status: v.Status}
	}
	return ProgressFields{Mode: "gated"}
}

// ParseProgress builds a mode from its flat fields. Fields that do not belong
// to the mode are ignored, so a stale earned_hours can never leak into a
// gated deliverable.
func ParseProgress(mode, status string, physical, earned float64) (ProgressMode, error) {
	switch mode {
	case "", "gated":
		return Gated{Status: status}, nil
	case "measured":
		return Measured{Status: status, Percent: physical}, nil
	case "manual":
		return Manual{Status: status, Hours: earned}, nil
	}
	return nil, fmt.Errorf("progress mode %q: %w", mode, ErrValidation)
}

// Parse builds the mode the fields describe. A manual mode needs
// earned_hours and a measured mode needs physical_progress.
func (p ProgressFields) Parse() (ProgressMode, error) {
	var physical, earned float64
	if p.PhysicalProgress != nil {
		physical = *p.PhysicalProgress
	}
	if p.EarnedHours != nil {
		earned = *p.EarnedHours
	}
	if p.Mode == "manual" && p.EarnedHours == nil {
		return nil, fmt.Errorf("manual progress needs earned_hours: %w", ErrValidation)
	}
	if p.Mode == "measured" && p.PhysicalProgress == nil {
		return nil, fmt.Errorf("measured progress needs physical_progress: %w", ErrValidation)
	}
	return ParseProgress(p.Mode, p.Status, physical, earned)
}

// PercentComplete returns the clamped physical progress a mode implies. For
// Manual it is derived from the asserted hours against budget.
func PercentComplete(m ProgressMode, budget float64, gates GateTable) float64 {
	switch v := m.(type) {
	case Gated:
		return clampPercent(gates.Percent(v.Status))
	case Measured:
		return clampPercent(v.Percent)
	case Manual:
		if budget <= 0 {
			return 0
		}
		return clampPercent(v.Hours / budget * 100)
	}
	return 0
}

// EarnedHours converts a deliverable's progress into earned hours against its
// effective budget.
func EarnedHours(m ProgressMode, effectiveBudget float64, gates GateTable) float64 {
	if v, ok := m.(Manual); ok {
		return v.Hours
	}
	if effectiveBudget == 0 {
		return 0
	}
	return effectiveBudget * PercentComplete(m, effectiveBudget, gates) / 100
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}
