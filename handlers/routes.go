package handlers

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"

	"projectcontrols/services"
)

// Register binds the project controls JSON API under /api/controls.
func Register(r *router.Router[*core.RequestEvent], eng *services.Engine) {
	api := r.Group("/api/controls")

	api.GET("/projects", HandleProjectList(eng))
	api.POST("/projects", HandleProjectCreate(eng))
	api.POST("/rates", HandleRateAdd(eng))
	api.GET("/rates/resolve", HandleRateResolve(eng))

	p := api.Group("/projects/{projectId}")
	p.BindFunc(ProjectMiddleware(eng.App))

	// ── Project ──────────────────────────────────────────────
	p.GET("", HandleProjectView(eng))
	p.PATCH("", HandleProjectUpdate(eng))
	p.POST("/status", HandleProjectStatus(eng))
	p.GET("/gates", HandleGateList(eng))
	p.POST("/gates", HandleGateOverride(eng))

	// ── Deliverables ─────────────────────────────────────────
	p.POST("/deliverables", HandleDeliverableCreate(eng))
	p.POST("/deliverables/{deliverableId}/parent", HandleDeliverableParent(eng))
	p.POST("/deliverables/{deliverableId}/progress", HandleProgressUpdate(eng))
	p.POST("/deliverables/{deliverableId}/forecast", HandleForecastUpdate(eng))
	p.GET("/deliverables/{deliverableId}/ledger", HandleDeliverableLedger(eng))
	p.GET("/progress", HandleProgressReport(eng))

	// ── Budget ledger ────────────────────────────────────────
	p.POST("/transfers", HandleTransfer(eng))
	p.POST("/drawdowns", HandleDrawdown(eng))
	p.GET("/contingency", HandleContingency(eng))

	// ── Change orders ────────────────────────────────────────
	p.GET("/change-orders", HandleChangeOrderList(eng))
	p.POST("/change-orders", HandleChangeOrderCreate(eng))
	p.PATCH("/change-orders/{coId}", HandleChangeOrderUpdate(eng))
	p.POST("/change-orders/{coId}/review", HandleChangeOrderReview(eng))
	p.POST("/change-orders/{coId}/incorporate", HandleChangeOrderIncorporate(eng))
	p.PUT("/change-orders/{coId}/deliverables", HandleChangeOrderLinks(eng))

	// ── Actuals and manning ──────────────────────────────────
	p.POST("/timesheets", HandleTimesheetBatch(eng))
	p.POST("/timesheets/import", HandleTimesheetImport(eng))
	p.GET("/timesheets", HandleTimesheetList(eng))
	p.PUT("/manning", HandleManningUpsert(eng))
	p.GET("/manning", HandleManningList(eng))

	// ── Commitments ──────────────────────────────────────────
	p.GET("/purchase-orders", HandlePOList(eng))
	p.POST("/purchase-orders", HandlePOCreate(eng))
	p.POST("/purchase-orders/{poId}/invoices", HandleInvoiceRecord(eng))
	p.POST("/purchase-orders/{poId}/accrual", HandlePOAccrual(eng))
	p.POST("/purchase-orders/{poId}/close", HandlePOClose(eng))
	p.PUT("/purchase-orders/{poId}/deliverables", HandlePOLinks(eng))
	p.POST("/invoices/{invoiceId}/advance", HandleInvoiceAdvance(eng))

	// ── Reports ──────────────────────────────────────────────
	p.GET("/summary", HandleSummary(eng))
	p.GET("/forecast", HandleForecast(eng))
	p.GET("/weekly-spend", HandleWeeklySpend(eng))
	p.GET("/snapshots", HandleSnapshotList(eng))
	p.POST("/snapshots", HandleSnapshotCreate(eng))
	p.GET("/snapshots/{week}", HandleSnapshotView(eng))
	p.GET("/commentary/{week}", HandleCommentaryView(eng))
	p.PUT("/commentary/{week}", HandleCommentarySave(eng))
	p.GET("/export.xlsx", HandleExportExcel(eng))
}
