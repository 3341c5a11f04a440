package services

import (
	"context"
	"errors"
	"log/slog"

	"auction-harvester/config"

	"gorm.io/gorm"
)

// HarvestPipeline runs a harvest and hands its new auctions to the export
// and notification sinks. Sink failures are logged and never change the
// outcome of the run.
type HarvestPipeline struct {
	job      *HarvestJobService
	exporter *HarvestExporter
	notifier *HarvestNotifier
}

// NewHarvestPipeline wires the sinks; a nil exporter or notifier disables it.
func NewHarvestPipeline(job *HarvestJobService, exporter *HarvestExporter, notifier *HarvestNotifier) *HarvestPipeline {
	return &HarvestPipeline{job: job, exporter: exporter, notifier: notifier}
}

func NewHarvestPipelineFromSettings(db *gorm.DB, settings config.HarvestSettings) *HarvestPipeline {
	job := NewHarvestJobService(db, NewBOEDriverFactory(settings), HarvestOptionsFromSettings(settings))

	var exporter *HarvestExporter
	if settings.ExportEnabled {
		exporter = NewHarvestExporter(settings.ExportDir)
	}
	var notifier *HarvestNotifier
	if settings.NotifyEnabled {
		if len(settings.NotifyRecipients) == 0 {
			slog.Warn("EMAIL_NOTIFICATIONS is on but NOTIFY_EMAIL has no valid address")
		} else {
			notifier = NewHarvestNotifier(settings.NotifyRecipients, settings.Locality, config.SendMail)
		}
	}
	return NewHarvestPipeline(job, exporter, notifier)
}

func (p *HarvestPipeline) Job() *HarvestJobService {
	return p.job
}

func (p *HarvestPipeline) RunOnce(ctx context.Context, trigger string) (*RunSummary, error) {
	summary, err := p.job.RunOnce(ctx, trigger)
	if summary != nil {
		p.afterRun(ctx, summary)
	}
	return summary, err
}

// Start runs the pipeline in the background. It fails immediately with
// ErrHarvestAlreadyRunning when a run is active.
func (p *HarvestPipeline) Start(ctx context.Context, trigger string) error {
	return p.job.Start(ctx, trigger, func(summary *RunSummary, err error) {
		if err != nil {
			slog.ErrorContext(ctx, "harvest run not recorded", "trigger", trigger, "err", err)
		}
		if summary != nil {
			p.afterRun(ctx, summary)
		}
	})
}

func (p *HarvestPipeline) afterRun(ctx context.Context, summary *RunSummary) {
	if summary.Stats.NewItems == 0 {
		return
	}
	ctx = persistentContext(ctx)

	if p.exporter != nil {
		res, err := p.exporter.Export(summary.Records)
		if err != nil {
			slog.ErrorContext(ctx, "export failed", "err", err)
		}
		if res != nil && (res.JSONPath != "" || res.XLSXPath != "") {
			slog.InfoContext(ctx, "auctions exported", "json", res.JSONPath, "xlsx", res.XLSXPath)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.Notify(summary); err != nil {
			slog.ErrorContext(ctx, "notification failed", "err", err)
		} else {
			slog.InfoContext(ctx, "notification sent", "new_items", summary.Stats.NewItems)
		}
	}
}

// IsBusy reports whether err means another harvest holds the guard or lock.
func IsBusy(err error) bool {
	return errors.Is(err, ErrHarvestAlreadyRunning)
}
