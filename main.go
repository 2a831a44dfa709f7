package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"projectcontrols/collections"
	"projectcontrols/config"
	"projectcontrols/handlers"
	"projectcontrols/services"
)

func main() {
	app := pocketbase.New()

	var engineConfig string
	app.RootCmd.PersistentFlags().StringVar(&engineConfig, "engine-config", "engine.toml",
		"path to the project controls engine TOML config")

	newEngine := func() (*services.Engine, error) {
		cfg, err := config.Load(engineConfig)
		if err != nil {
			return nil, err
		}
		return services.NewEngine(app, cfg), nil
	}

	collections.RegisterGuards(app)

	// Create collections, seed reference data and run migrations on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		cfg, err := config.Load(engineConfig)
		if err != nil {
			return fmt.Errorf("engine config: %w", err)
		}
		collections.Setup(app)
		if err := collections.Seed(app, cfg.Gates); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateLinkedDeliverables(app); err != nil {
			log.Printf("Warning: linked deliverables migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		eng, err := newEngine()
		if err != nil {
			return fmt.Errorf("engine config: %w", err)
		}
		handlers.Register(se.Router, eng)

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/api/controls/projects")
		})

		return se.Next()
	})

	app.RootCmd.AddCommand(snapshotCommand(app, newEngine))
	app.RootCmd.AddCommand(reconcileCommand(app, newEngine))

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// resolveProject accepts either a project id or a project code.
func resolveProject(app core.App, ref string) (services.Project, error) {
	if r, err := app.FindFirstRecordByData("projects", "project_code", ref); err == nil {
		return services.LoadProject(app, r.Id)
	}
	return services.LoadProject(app, ref)
}

func snapshotCommand(app *pocketbase.PocketBase, newEngine func() (*services.Engine, error)) *cobra.Command {
	var projectRef, week, createdBy string

	cmd := &cobra.Command{
		Use:          "snapshot",
		Short:        "Record the weekly snapshot of a project (report close)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			eng, err := newEngine()
			if err != nil {
				return err
			}
			project, err := resolveProject(app, projectRef)
			if err != nil {
				return err
			}
			snap, err := eng.CreateSnapshot(project.ID, week, createdBy, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s week ending %s: earned %s of %s, FAC %s / %s, contingency %s\n",
				project.Code, snap.WeekEnding,
				services.FormatHours(snap.EarnedHours), services.FormatHours(snap.BudgetHours),
				services.FormatHours(snap.FACDeliverable), services.FormatHours(snap.FACManning),
				services.FormatHours(snap.ContingencyBalance))
			return nil
		},
	}
	cmd.Flags().StringVar(&projectRef, "project", "", "project id or code")
	cmd.Flags().StringVar(&week, "week", "", "week ending date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&createdBy, "by", "", "name recorded as the snapshot author")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("week")
	return cmd
}

func reconcileCommand(app *pocketbase.PocketBase, newEngine func() (*services.Engine, error)) *cobra.Command {
	var projectRef, asOf string

	cmd := &cobra.Command{
		Use:          "reconcile",
		Short:        "Print both forecasts-at-completion of a project and their variance",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			collections.Setup(app)
			eng, err := newEngine()
			if err != nil {
				return err
			}
			project, err := resolveProject(app, projectRef)
			if err != nil {
				return err
			}
			day, err := services.ParseDate(asOf)
			if err != nil {
				return err
			}
			rec, err := eng.GetForecastReconciliation(project.ID, day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s as of %s\n", project.Code, project.Name, rec.AsOf)
			fmt.Fprintf(out, "  actual to date      %12s\n", services.FormatHours(rec.ActualHours))
			fmt.Fprintf(out, "  FTC (deliverables)  %12s\n", services.FormatHours(rec.DeliverableFTC))
			fmt.Fprintf(out, "  FTC (manning)       %12s\n", services.FormatHours(rec.ManningFTC))
			fmt.Fprintf(out, "  FAC (deliverables)  %12s\n", services.FormatHours(rec.FACDeliverable))
			fmt.Fprintf(out, "  FAC (manning)       %12s\n", services.FormatHours(rec.FACManning))
			fmt.Fprintf(out, "  variance            %12s\n", services.FormatHours(rec.Variance))
			fmt.Fprintf(out, "  manning cost to go  %12s\n", services.FormatMoney(rec.ManningCost))
			return nil
		},
	}
	cmd.Flags().StringVar(&projectRef, "project", "", "project id or code")
	cmd.Flags().StringVar(&asOf, "as-of", "", "reconciliation date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("as-of")
	return cmd
}
