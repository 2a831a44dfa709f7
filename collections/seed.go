package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/config"
)

// ── Definition structs ───────────────────────────────────────────────────

type disciplineDef struct {
	code     string
	name     string
	function string
}

type staffDef struct {
	name       string
	function   string
	discipline string
	position   string
}

type rateDef struct {
	position      string
	rate          float64
	effectiveDate string
}

var seedDisciplines = []disciplineDef{
	{"GN", "General/Management", "MANAGEMENT"},
	{"ME", "Mechanical", "ENGINEERING"},
	{"EE", "Electrical", "ENGINEERING"},
	{"IC", "Instrumentation & Control", "ENGINEERING"},
	{"ST", "Structural", "ENGINEERING"},
	{"CIVIL", "Civil", "ENGINEERING"},
	{"PROC", "Process", "ENGINEERING"},
	{"CAD", "CAD/Drafting", "DRAFTING"},
}

var seedStaff = []staffDef{
	{"Gavin Andersen", "MANAGEMENT", "GN", "Engineering Manager"},
	{"Mark Rankin", "DRAFTING", "GN", "Drawing Office Manager"},
	{"Ben Robinson", "ENGINEERING", "ME", "Senior Engineer"},
	{"Will Smith", "ENGINEERING", "ME", "Lead Engineer"},
	{"Ben Bowles", "ENGINEERING", "ME", "Senior Engineer"},
}

var seedRates = []rateDef{
	{"Engineering Manager", 245, "2025-01-01"},
	{"Lead Engineer", 195, "2025-01-01"},
	{"Senior Engineer", 170, "2025-01-01"},
	{"Drawing Office Manager", 195, "2025-01-01"},
	{"Lead Designer", 165, "2025-01-01"},
	{"Senior Designer", 150, "2025-01-01"},
	{"Designer", 140, "2025-01-01"},
}

// Seed inserts the reference data the engine reads but does not own: the
// discipline catalog, the global progress-gate table, the staff roster and the
// rate schedule. Each collection is only seeded while it is empty, so the call
// is safe on every startup and never clobbers edits.
func Seed(app core.App, gates []config.GateConfig) error {
	if err := seedIfEmpty(app, "disciplines", func(txApp core.App, col *core.Collection) error {
		for _, d := range seedDisciplines {
			r := core.NewRecord(col)
			r.Set("code", d.code)
			r.Set("name", d.name)
			r.Set("function", d.function)
			r.Set("active", true)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("discipline %s: %w", d.code, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := seedIfEmpty(app, "progress_gates", func(txApp core.App, col *core.Collection) error {
		for _, g := range gates {
			r := core.NewRecord(col)
			r.Set("name", g.Name)
			r.Set("label", g.Label)
			r.Set("default_percent", g.Percent)
			r.Set("sort_order", g.SortOrder)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("gate %s: %w", g.Name, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if err := seedIfEmpty(app, "staff", func(txApp core.App, col *core.Collection) error {
		for _, s := range seedStaff {
			r := core.NewRecord(col)
			r.Set("name", s.name)
			r.Set("function", s.function)
			r.Set("discipline", s.discipline)
			r.Set("position", s.position)
			r.Set("active", true)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("staff %s: %w", s.name, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	return seedIfEmpty(app, "rate_schedule", func(txApp core.App, col *core.Collection) error {
		for _, rd := range seedRates {
			r := core.NewRecord(col)
			r.Set("position", rd.position)
			r.Set("rate", rd.rate)
			r.Set("effective_date", rd.effectiveDate)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("rate %s: %w", rd.position, err)
			}
		}
		return nil
	})
}

func seedIfEmpty(app core.App, name string, insert func(core.App, *core.Collection) error) error {
	col, err := app.FindCollectionByNameOrId(name)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", name, err)
	}
	total, err := app.CountRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not count %s: %w", name, err)
	}
	if total > 0 {
		return nil
	}

	log.Printf("seed: %s collection is empty -- inserting reference data...\n", name)
	return app.RunInTransaction(func(txApp core.App) error {
		txCol, err := txApp.FindCollectionByNameOrId(name)
		if err != nil {
			return err
		}
		if err := insert(txApp, txCol); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		return nil
	})
}
