package registration

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"carebook-backend/internal/classroom"
)

type ClassLister interface {
	ActiveClasses(ctx context.Context) ([]classroom.Class, error)
}

// Scheduler は毎日決まった時刻に全クラスの一括登録を流す
type Scheduler struct {
	svc     *Service
	classes ClassLister
	staffID string
	timeout time.Duration
	cron    *cron.Cron
}

func NewScheduler(svc *Service, classes ClassLister, staffID string) *Scheduler {
	return &Scheduler{
		svc:     svc,
		classes: classes,
		staffID: staffID,
		timeout: 4 * time.Minute,
		cron: cron.New(
			cron.WithLocation(svc.loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
	}
}

func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return err
	}
	log.Printf("[INFO] registration scheduler started spec=%q staff=%s", spec, s.staffID)
	s.cron.Start()
	return nil
}

// Stop は実行中のジョブが終わると Done になる context を返す
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce: 有効な全クラスを今日の日付で登録する。クラス単位の失敗はログだけ。
func (s *Scheduler) RunOnce(ctx context.Context) []RegisterResult {
	classes, err := s.classes.ActiveClasses(ctx)
	if err != nil {
		log.Printf("[ERROR] scheduled registration: list classes: %v", err)
		return nil
	}
	today := s.svc.Now()
	out := make([]RegisterResult, 0, len(classes))
	for _, c := range classes {
		res, err := s.svc.RegisterPresentStudents(ctx, c.ClassID, today, s.staffID)
		if err != nil {
			log.Printf("[ERROR] scheduled registration class=%s run=%s: %v", c.ClassID, res.RunID, err)
			if ctx.Err() != nil {
				return out
			}
			continue
		}
		log.Printf("[INFO] scheduled registration class=%s run=%s created=%d skipped=%d failed=%d holiday=%v",
			c.ClassID, res.RunID, res.Created, res.Skipped, len(res.Failed), res.Holiday)
		out = append(out, res)
	}
	return out
}
