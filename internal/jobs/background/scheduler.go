package background

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"receiptdesk/internal/caching"
	"receiptdesk/internal/models"
	"receiptdesk/internal/repositories"
)

// JobScheduler runs the periodic maintenance work: a pending-receipt aging
// report and a receipt cache refresh.
type JobScheduler struct {
	scheduler   gocron.Scheduler
	receiptRepo repositories.ReceiptRepository
	cacheSvc    caching.CacheService
}

func NewJobScheduler(receiptRepo repositories.ReceiptRepository, cacheSvc caching.CacheService) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		receiptRepo: receiptRepo,
		cacheSvc:    cacheSvc,
	}

	if err := js.registerJobs(); err != nil {
		return nil, err
	}

	return js, nil
}

func (js *JobScheduler) registerJobs() error {
	_, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.reportPendingReceipts),
		gocron.WithName("pending-receipt-report"),
	)
	if err != nil {
		return err
	}

	_, err = js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.refreshReceiptCache),
		gocron.WithName("receipt-cache-refresh"),
	)
	return err
}

func (js *JobScheduler) Start() {
	js.scheduler.Start()
	log.Println("Background job scheduler started")
}

func (js *JobScheduler) Stop() {
	if err := js.scheduler.Shutdown(); err != nil {
		log.Printf("Failed to shut down scheduler: %v", err)
	}
}

func (js *JobScheduler) reportPendingReceipts() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := js.receiptRepo.CountByStatus(ctx, models.ReceiptStatusPending)
	if err != nil {
		log.Printf("Pending receipt report failed: %v", err)
		return
	}
	log.Printf("Pending receipts awaiting booking: %d", count)
}

func (js *JobScheduler) refreshReceiptCache() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := js.cacheSvc.InvalidateReceipts(ctx); err != nil {
		log.Printf("Receipt cache refresh failed: %v", err)
	}
}
