package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"BetaScope/internal/collector"
	"BetaScope/internal/model"
	"BetaScope/internal/notifier"
)

// ErrRunInProgress is returned when a run is requested while another is active.
var ErrRunInProgress = errors.New("report run already in progress")

// Sender delivers a formatted report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Job describes what a report run covers.
type Job struct {
	IndexFIGI  string
	Securities []model.Security
	Months     int
	LagDays    int
}

// Scheduler runs beta reports on demand and on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Sender // nil disables delivery
	Out       io.Writer
	Job       Job
	Ctx       context.Context
	Now       func() time.Time

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler writing reports to out.
func NewScheduler(ctx context.Context, col *collector.Collector, sender Sender, out io.Writer, job Job) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  sender,
		Out:       out,
		Job:       job,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the recurring report task.
func (s *Scheduler) Register(reportCron string) error {
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunOnce fetches, estimates and reports a single batch. It fails only when
// the batch as a whole cannot run; per-security failures are report lines.
func (s *Scheduler) RunOnce(ctx context.Context) ([]model.BetaRow, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	w := model.TrailingWindow(s.Now(), s.Job.Months, s.Job.LagDays)
	log.Printf("[INFO] running beta report for %d securities, %s .. %s",
		len(s.Job.Securities), w.From.Format("2006-01-02"), w.To.Format("2006-01-02"))

	rows, err := s.Collector.Collect(ctx, s.Job.IndexFIGI, s.Job.Securities, w)
	if err != nil {
		return nil, err
	}

	if _, err := io.WriteString(s.Out, notifier.FormatReport(rows)); err != nil {
		log.Printf("[ERROR] write report: %v", err)
	}
	if s.Notifier != nil {
		if err := s.Notifier.SendWithRetry(ctx, notifier.FormatTelegramReport(rows, w), 3); err != nil {
			log.Printf("[ERROR] send report: %v", err)
		}
	}

	failed := 0
	for _, r := range rows {
		if r.Err != nil {
			failed++
		}
	}
	log.Printf("[INFO] beta report done: %d ok, %d failed", len(rows)-failed, failed)
	return rows, nil
}

func (s *Scheduler) reportTask() {
	if _, err := s.RunOnce(s.Ctx); err != nil {
		log.Printf("[ERROR] report run: %v", err)
		s.trySend(fmt.Sprintf("❌ Beta report failed: %v", err))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/beta":
		if _, err := s.RunOnce(ctx); err != nil {
			return fmt.Sprintf("❌ Beta report failed: %v", err)
		}
		return ""
	case "/list":
		var msg string
		for _, sec := range s.Job.Securities {
			msg += fmt.Sprintf("%s %s (broker %.2f)\n", sec.Label, sec.FIGI, sec.BrokerBeta)
		}
		return msg
	default:
		return "Commands:\n• /beta - run the beta report\n• /list - configured securities"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
