package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"auction-harvester/config"
	"auction-harvester/extraction"
	"auction-harvester/models"
	"auction-harvester/session"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("auction-harvester/services")

var errMissingDetailURL = errors.New("listing entry has no detail link")

type HarvestState string

const (
	HarvestStateIdle       HarvestState = "idle"
	HarvestStateOpening    HarvestState = "opening"
	HarvestStateSearching  HarvestState = "searching"
	HarvestStatePageLoop   HarvestState = "page_loop"
	HarvestStateFinalizing HarvestState = "finalizing"
	HarvestStateCompleted  HarvestState = "completed"
	HarvestStateFailed     HarvestState = "failed"
)

const (
	TriggerScheduler = "scheduler"
	TriggerAPI       = "api"
	TriggerCLI       = "cli"
)

type HarvestStats struct {
	TotalFound   int `json:"total_found"`
	NewItems     int `json:"new_items"`
	Errors       int `json:"errors"`
	FieldIssues  int `json:"field_issues"`
	PagesVisited int `json:"pages_visited"`
}

// RunSummary is what a harvest returns to its caller. Records holds the
// auctions persisted by this run, in listing order.
type RunSummary struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Stats   HarvestStats       `json:"stats"`
	Records []models.Auction   `json:"records"`
	Run     *models.HarvestRun `json:"run,omitempty"`
}

type HarvestOptions struct {
	SearchURL       string
	Locality        string
	PolitenessDelay time.Duration
	MaxPages        int
	// LockName is the MySQL advisory lock shared by every harvester using
	// the same database. Ignored on other databases.
	LockName string
}

// DriverFactory creates the browsing session for one run.
type DriverFactory func() (session.Driver, error)

// NewBOEDriverFactory builds BOE sessions from the harvest settings.
func NewBOEDriverFactory(settings config.HarvestSettings) DriverFactory {
	return func() (session.Driver, error) {
		return session.NewBOEDriver(session.BOEOptions{
			BaseURL: settings.BaseURL,
			Timeout: settings.RequestTimeout,
		})
	}
}

// HarvestOptionsFromSettings maps the environment settings onto job options.
func HarvestOptionsFromSettings(settings config.HarvestSettings) HarvestOptions {
	return HarvestOptions{
		SearchURL:       session.SearchURL(settings.BaseURL),
		Locality:        settings.Locality,
		PolitenessDelay: settings.PolitenessDelay,
		MaxPages:        settings.MaxPages,
		LockName:        settings.LockName,
	}
}

// storageError marks failures of the store, which end the run.
type storageError struct {
	err error
}

func (e *storageError) Error() string { return e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

// HarvestJobService is the deduplicating ingest controller.
type HarvestJobService struct {
	db        *gorm.DB
	repo      *AuctionRepository
	runSvc    *HarvestRunService
	guard     *HarvestGuard
	newDriver DriverFactory
	opts      HarvestOptions
	now       func() time.Time

	mu    sync.RWMutex
	state HarvestState
	last  *RunSummary
}

func NewHarvestJobService(db *gorm.DB, newDriver DriverFactory, opts HarvestOptions) *HarvestJobService {
	if db == nil {
		db = config.DB
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 200
	}
	if strings.TrimSpace(opts.Locality) == "" {
		opts.Locality = config.DefaultLocality
	}
	if opts.SearchURL == "" {
		opts.SearchURL = session.SearchURL("")
	}
	return &HarvestJobService{
		db:        db,
		repo:      NewAuctionRepository(db),
		runSvc:    NewHarvestRunService(db),
		guard:     NewHarvestGuard(),
		newDriver: newDriver,
		opts:      opts,
		now:       time.Now,
		state:     HarvestStateIdle,
	}
}

func (s *HarvestJobService) Guard() *HarvestGuard {
	return s.guard
}

func (s *HarvestJobService) State() HarvestState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LastSummary returns the summary of the last run finished by this process.
func (s *HarvestJobService) LastSummary() *RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *HarvestJobService) setState(state HarvestState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// RunOnce harvests synchronously. It returns ErrHarvestAlreadyRunning when
// another run holds the guard. A run that fails is reported through the
// summary; the error is reserved for runs that could not start or could not
// be recorded.
func (s *HarvestJobService) RunOnce(ctx context.Context, trigger string) (*RunSummary, error) {
	release, err := s.guard.Acquire(trigger)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.run(ctx, trigger)
}

// Start acquires the guard and harvests in the background. done, when not
// nil, receives the outcome.
func (s *HarvestJobService) Start(ctx context.Context, trigger string, done func(*RunSummary, error)) error {
	release, err := s.guard.Acquire(trigger)
	if err != nil {
		return err
	}
	go func() {
		defer release()
		summary, err := s.run(ctx, trigger)
		if done != nil {
			done(summary, err)
		}
	}()
	return nil
}

// Wait blocks until the active run, if any, has finished.
func (s *HarvestJobService) Wait(ctx context.Context) error {
	return s.guard.Wait(ctx)
}

func (s *HarvestJobService) run(ctx context.Context, trigger string) (*RunSummary, error) {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		trigger = TriggerAPI
	}

	release, err := s.acquireLock(ctx, s.opts.LockName)
	if err != nil {
		return nil, err
	}
	if release != nil {
		defer func() {
			if relErr := release(); relErr != nil {
				slog.Warn("failed to release harvest lock", "err", relErr)
			}
		}()
	}

	ctx, span := tracer.Start(ctx, "harvest.run", trace.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("locality", s.opts.Locality),
	))
	defer span.End()

	startedAt := s.now()
	slog.InfoContext(ctx, "harvest started", "trigger", trigger, "locality", s.opts.Locality)

	var stats HarvestStats
	var records []models.Auction
	harvestErr := s.harvest(ctx, &stats, &records)

	s.setState(HarvestStateFinalizing)
	finishedAt := s.now()
	run := &models.HarvestRun{
		RunUUID:         uuid.NewString(),
		TriggerSource:   trigger,
		Locality:        s.opts.Locality,
		Status:          models.HarvestRunStatusSuccess,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		DurationSeconds: finishedAt.Sub(startedAt).Seconds(),
		NewItems:        stats.NewItems,
		FieldIssues:     stats.FieldIssues,
		PagesVisited:    stats.PagesVisited,
		TotalFound:      stats.TotalFound,
	}
	summary := &RunSummary{Success: true, Records: records}
	if harvestErr != nil {
		stats.Errors++
		msg := harvestErr.Error()
		run.Status = models.HarvestRunStatusError
		run.ErrorMessage = &msg
		summary.Success = false
		summary.Error = msg

		span.RecordError(harvestErr)
		span.SetStatus(codes.Error, "harvest failed")
		slog.ErrorContext(ctx, "harvest failed", "trigger", trigger, "err", harvestErr,
			"new_items", stats.NewItems, "errors", stats.Errors, "pages", stats.PagesVisited)
	}
	run.Errors = stats.Errors
	summary.Stats = stats

	// the ledger row is written even when the caller has gone away
	recordCtx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := s.runSvc.Record(recordCtx, run); err != nil {
		s.finish(HarvestStateFailed, summary)
		return summary, fmt.Errorf("record harvest run: %w", err)
	}
	summary.Run = run

	if harvestErr != nil {
		s.finish(HarvestStateFailed, summary)
		return summary, nil
	}

	slog.InfoContext(ctx, "harvest completed",
		"trigger", trigger,
		"total_found", stats.TotalFound,
		"new_items", stats.NewItems,
		"errors", stats.Errors,
		"field_issues", stats.FieldIssues,
		"pages", stats.PagesVisited,
		"duration", finishedAt.Sub(startedAt).Round(time.Millisecond),
	)
	s.finish(HarvestStateCompleted, summary)
	return summary, nil
}

func (s *HarvestJobService) finish(state HarvestState, summary *RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.last = summary
}

func interrupted(err error) error {
	return fmt.Errorf("harvest interrupted: %w", err)
}

// harvest walks every result page. Its error is the reason the run failed.
func (s *HarvestJobService) harvest(ctx context.Context, stats *HarvestStats, records *[]models.Auction) error {
	if s.newDriver == nil {
		return errors.New("no session driver configured")
	}

	s.setState(HarvestStateOpening)
	drv, err := s.newDriver()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := drv.Open(ctx); err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := cleanupContext(ctx)
		defer cancel()
		if err := drv.Close(closeCtx); err != nil {
			slog.Warn("failed to close session", "err", err)
		}
	}()

	s.setState(HarvestStateSearching)
	if err := drv.Navigate(ctx, s.opts.SearchURL); err != nil {
		return err
	}
	if err := drv.ApplyLocalityFilter(ctx, s.opts.Locality); err != nil {
		return err
	}
	if err := drv.SubmitSearch(ctx); err != nil {
		return err
	}

	s.setState(HarvestStatePageLoop)
	limiter := newPolitenessLimiter(s.opts.PolitenessDelay)
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}

		content, err := drv.CurrentPageContent(ctx)
		if err != nil {
			return err
		}
		stats.PagesVisited++

		if page == 1 {
			if total, ok := extraction.ExtractTotalResults(content); ok {
				stats.TotalFound = total
			} else {
				slog.WarnContext(ctx, "results header not found")
			}
		}

		listing, err := extraction.ExtractListingPage(content, s.now())
		if err != nil {
			return fmt.Errorf("extract listing page %d: %w", page, err)
		}
		stats.Errors += listing.Errors
		for _, issue := range listing.Issues {
			slog.WarnContext(ctx, "listing entry skipped", "page", page, "issue", issue)
		}
		slog.InfoContext(ctx, "results page loaded", "page", page, "entries", len(listing.Stubs))

		for _, stub := range listing.Stubs {
			if err := ctx.Err(); err != nil {
				return interrupted(err)
			}

			exists, err := s.repo.Exists(persistentContext(ctx), stub.Identity)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", stub.Identity, err)
			}
			if exists {
				slog.DebugContext(ctx, "auction already known", "identity", stub.Identity)
				continue
			}

			if err := limiter.Wait(ctx); err != nil {
				return interrupted(err)
			}

			// an in-flight record runs to completion even if ctx is cancelled
			auction, err := s.harvestRecord(persistentContext(ctx), drv, stub, stats)
			if err != nil {
				var storeErr *storageError
				if errors.As(err, &storeErr) {
					return fmt.Errorf("save %s: %w", stub.Identity, storeErr.err)
				}
				stats.Errors++
				slog.WarnContext(ctx, "auction detail failed", "identity", stub.Identity, "err", err)
				continue
			}
			stats.NewItems++
			*records = append(*records, *auction)
			slog.InfoContext(ctx, "auction saved", "identity", stub.Identity)
		}

		if err := ctx.Err(); err != nil {
			return interrupted(err)
		}
		hasNext, err := drv.HasNextPage(ctx)
		if err != nil {
			return err
		}
		if !hasNext {
			return nil
		}
		if page >= s.opts.MaxPages {
			stats.Errors++
			slog.WarnContext(ctx, "page limit reached, stopping", "max_pages", s.opts.MaxPages)
			return nil
		}
		if err := drv.AdvancePage(ctx); err != nil {
			return err
		}
	}
}

// harvestRecord loads the detail page and asset tab of a new auction and
// saves both. Any failure other than a storageError leaves nothing behind.
func (s *HarvestJobService) harvestRecord(ctx context.Context, drv session.Driver, stub extraction.Stub, stats *HarvestStats) (*models.Auction, error) {
	if stub.DetailURL == "" {
		return nil, errMissingDetailURL
	}
	if err := drv.Navigate(ctx, stub.DetailURL); err != nil {
		return nil, err
	}
	content, err := drv.CurrentPageContent(ctx)
	if err != nil {
		return nil, err
	}
	detail, err := extraction.ExtractDetailPage(content)
	if err != nil {
		return nil, fmt.Errorf("extract detail: %w", err)
	}

	auction := newAuction(stub, detail)

	opened, err := drv.OpenTab(ctx, extraction.AssetTabLabel)
	if err != nil {
		return nil, err
	}
	if opened {
		content, err := drv.CurrentPageContent(ctx)
		if err != nil {
			return nil, err
		}
		fields, err := extraction.ExtractAssetPage(content)
		if err != nil {
			return nil, fmt.Errorf("extract asset: %w", err)
		}
		if !fields.Empty() {
			auction.Asset = newAsset(auction.Identity, fields)
		}
	}

	if err := s.repo.SaveHarvested(ctx, auction); err != nil {
		return nil, &storageError{err: err}
	}

	// unreadable values are errors too; FieldIssues keeps their share of the total
	for _, issue := range detail.Issues {
		slog.WarnContext(ctx, "auction field unreadable", "identity", stub.Identity, "issue", issue)
	}
	stats.FieldIssues += len(detail.Issues)
	stats.Errors += len(detail.Issues)
	return auction, nil
}

func newPolitenessLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func newAuction(stub extraction.Stub, detail extraction.DetailFields) *models.Auction {
	return &models.Auction{
		Identity:      stub.Identity,
		Category:      stub.Category,
		Authority:     stub.Authority,
		CaseReference: stub.CaseReference,
		Status:        stub.Status,
		Description:   stub.Description,
		DetailURL:     stub.DetailURL,
		ExtractedAt:   stub.ExtractedAt,
		AuctionType:   detail.AuctionType,
		FilingAccount: detail.FilingAccount,
		StartDate:     detail.StartDate,
		EndDate:       detail.EndDate,
		StartDateRaw:  detail.StartDateRaw,
		EndDateRaw:    detail.EndDateRaw,
		ClaimedAmount: detail.ClaimedAmount,
		AuctionValue:  detail.AuctionValue,
		Appraisal:     detail.Appraisal,
		MinimumBid:    detail.MinimumBid,
		DepositAmount: detail.DepositAmount,
		Lots:          detail.Lots,
		Announcement:  detail.Announcement,
	}
}

func newAsset(identity string, f *extraction.AssetFields) *models.Asset {
	return &models.Asset{
		AuctionIdentity:  identity,
		Category:         f.Category,
		Description:      f.Description,
		RegistryID:       f.RegistryID,
		CadastralRef:     f.CadastralRef,
		Address:          f.Address,
		PostalCode:       f.PostalCode,
		Locality:         f.Locality,
		Province:         f.Province,
		PossessionStatus: f.PossessionStatus,
		Visitable:        f.Visitable,
	}
}

// acquireLock takes the MySQL named lock on a connection reserved for the
// whole run. Named locks belong to the session that took them, so both
// statements must go through the same connection.
func (s *HarvestJobService) acquireLock(ctx context.Context, lockName string) (func() error, error) {
	if strings.TrimSpace(lockName) == "" || s.db.Dialector.Name() != config.DriverMySQL {
		return nil, nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	lockCtx := persistentContext(ctx)
	conn, err := sqlDB.Conn(lockCtx)
	if err != nil {
		return nil, fmt.Errorf("reserve lock connection: %w", err)
	}

	var ok sql.NullInt64
	if err := conn.QueryRowContext(lockCtx, "SELECT GET_LOCK(?, 0)", lockName).Scan(&ok); err != nil {
		discardConn(conn)
		return nil, err
	}
	if ok.Int64 != 1 {
		_ = conn.Close()
		return nil, ErrHarvestAlreadyRunning
	}

	return func() error {
		var released sql.NullInt64
		err := conn.QueryRowContext(lockCtx, "SELECT RELEASE_LOCK(?)", lockName).Scan(&released)
		if err == nil && released.Int64 != 1 {
			err = fmt.Errorf("release lock %q returned %d", lockName, released.Int64)
		}
		if err != nil {
			// closing the session is the only other way MySQL drops the lock
			discardConn(conn)
			return err
		}
		return conn.Close()
	}, nil
}

// discardConn closes the underlying session instead of returning it to the pool.
func discardConn(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}
