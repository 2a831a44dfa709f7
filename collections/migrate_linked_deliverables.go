package collections

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// MigrateLinkedDeliverables drains the legacy serialized linked_deliverables
// lists on change orders and purchase orders into their join collections.
// Safe to call on every startup -- returns early if nothing to migrate.
func MigrateLinkedDeliverables(app core.App) error {
	if err := migrateLinks(app, "change_orders", "change_order_deliverables", "change_order"); err != nil {
		return err
	}
	return migrateLinks(app, "purchase_orders", "purchase_order_deliverables", "purchase_order")
}

func migrateLinks(app core.App, ownerName, joinName, ownerField string) error {
	owners, err := app.FindRecordsByFilter(ownerName, "linked_deliverables != ''", "", 0, 0)
	if err != nil {
		return fmt.Errorf("migrate: could not query %s: %w", ownerName, err)
	}
	if len(owners) == 0 {
		return nil
	}

	joinCol, err := app.FindCollectionByNameOrId(joinName)
	if err != nil {
		return fmt.Errorf("migrate: could not find %s collection: %w", joinName, err)
	}

	log.Printf("migrate: found %d %s with legacy linked_deliverables -- converting...\n", len(owners), ownerName)

	for _, owner := range owners {
		ids, err := parseLegacyIDs(owner.GetString("linked_deliverables"))
		if err != nil {
			log.Printf("migrate: %s %s has unreadable linked_deliverables: %v\n", ownerName, owner.Id, err)
			continue
		}

		err = app.RunInTransaction(func(txApp core.App) error {
			for _, id := range ids {
				deliverable, err := txApp.FindRecordById("deliverables", id)
				if err != nil || deliverable.GetString("project") != owner.GetString("project") {
					log.Printf("migrate: %s %s links unknown deliverable %q, skipping\n", ownerName, owner.Id, id)
					continue
				}

				existing, _ := txApp.FindFirstRecordByFilter(joinName,
					ownerField+" = {:owner} && deliverable = {:deliverable}",
					dbx.Params{"owner": owner.Id, "deliverable": id})
				if existing != nil {
					continue
				}

				link := core.NewRecord(joinCol)
				link.Set(ownerField, owner.Id)
				link.Set("deliverable", id)
				if err := txApp.Save(link); err != nil {
					return err
				}
			}

			// Incorporated change orders are frozen; their join rows are enough.
			if owner.GetString("status") == "incorporated" {
				return nil
			}
			owner.Set("linked_deliverables", "")
			return txApp.Save(owner)
		})
		if err != nil {
			log.Printf("migrate: failed to convert links for %s %s: %v\n", ownerName, owner.Id, err)
		}
	}

	log.Printf("migrate: %s linked_deliverables migration complete.\n", ownerName)
	return nil
}

// parseLegacyIDs accepts either a JSON array of ids or a comma separated list.
func parseLegacyIDs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var ids []string
	if strings.HasPrefix(raw, "[") {
		var values []any
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, err
		}
		for _, v := range values {
			switch id := v.(type) {
			case string:
				ids = append(ids, strings.TrimSpace(id))
			case float64:
				ids = append(ids, fmt.Sprintf("%.0f", id))
			}
		}
	} else {
		for _, part := range strings.Split(raw, ",") {
			ids = append(ids, strings.TrimSpace(part))
		}
	}

	out := ids[:0]
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
