package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/yashsmehta/auto-apply/internal/archive"
	"github.com/yashsmehta/auto-apply/internal/store"
	"github.com/yashsmehta/auto-apply/models"
)

// Scheduler re-processes tracked applications on their cron spec: portals
// update deadlines and questions, so stale answers get regenerated without a
// manual run. Run history rows land in Postgres; successful reports go to the
// archive like any other run.
type Scheduler struct {
	Store    *store.Store
	Runner   Runner
	Archive  *archive.Archive
	Rdb      *redis.Client // optional; enables the cross-instance lock
	Interval time.Duration
	LockTTL  time.Duration
	Logger   *log.Logger
	Stop     chan struct{}
}

func (s *Scheduler) Start() {
	if s.Interval <= 0 {
		s.Interval = time.Hour
	}
	if s.LockTTL <= 0 {
		s.LockTTL = 2 * time.Minute
	}
	if s.Logger == nil {
		s.Logger = log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
	}
	ticker := time.NewTicker(s.Interval)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	apps, err := s.Store.ListAllApplications(ctx)
	if err != nil {
		s.Logger.Printf("listing applications: %v", err)
		return
	}
	for _, app := range apps {
		last, _ := s.Store.LatestRunTime(ctx, app.ID)
		if !isDue(app.ScheduleCron, last) {
			continue
		}

		if s.Rdb != nil {
			// The lock is left to expire on its own so a second instance
			// cannot re-fire the same application while the run is young.
			lockKey := "sched:lock:" + app.ID
			ok, _ := s.Rdb.SetNX(ctx, lockKey, "1", s.LockTTL).Result()
			if !ok {
				continue
			}
		}

		runID, err := s.Store.CreateRun(ctx, app.ID, store.RunStatusRunning)
		if err != nil {
			s.Logger.Printf("creating run for %s: %v", app.Name, err)
			continue
		}
		go s.run(app, runID)
	}
}

func (s *Scheduler) run(app store.TrackedApplication, runID string) {
	// jitter to avoid stampedes when many applications share a cron spec
	time.Sleep(time.Duration(250+time.Now().UnixNano()%250) * time.Millisecond)

	ctx := context.Background()
	report := s.Runner.Process(ctx, app.Job(), nil)
	if report.Status != models.StatusSuccess {
		_ = s.Store.FinishRun(ctx, runID, store.RunStatusFailed, strPtr(report.Error), report.TotalQuestions, report.TotalAnswers)
		return
	}
	if _, err := s.Archive.Save(report); err != nil {
		s.Logger.Printf("archiving %s: %v", app.Name, err)
	}
	_ = s.Store.FinishRun(ctx, runID, store.RunStatusSucceeded, nil, report.TotalQuestions, report.TotalAnswers)
}

// isDue determines if an application with cronSpec should run now based on
// its last run time. Supports "@daily", "@hourly", and standard 5-field cron
// expressions; invalid specs fall back to @daily.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}

func strPtr(s string) *string { return &s }
