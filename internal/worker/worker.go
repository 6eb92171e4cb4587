package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"freightmatch/internal/config"
	"freightmatch/internal/pipeline"
	"freightmatch/internal/storage"
)

// Service prices pending quotes on an interval and periodically reruns the
// weight learner.
type Service struct {
	db  *storage.DB
	cfg config.Config
	svc *pipeline.PricingService

	cyclesSinceLearn int
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg, svc: pipeline.NewPricingService(db, cfg)}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("worker cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WorkerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	processed, err := s.svc.ProcessPending(ctx, s.cfg.WorkerBatchSize)
	if err != nil {
		return err
	}

	s.cyclesSinceLearn++
	if s.cfg.WorkerLearnEveryN > 0 && s.cyclesSinceLearn >= s.cfg.WorkerLearnEveryN {
		s.cyclesSinceLearn = 0
		learned, err := s.svc.LearnWeights()
		if err != nil {
			fmt.Printf("weight learning error: %v\n", err)
		} else if learned != nil {
			fmt.Printf("weights relearned from feedback, %d criteria\n", len(learned))
		}
	}

	if s.cfg.WorkerAutoExport && processed > 0 {
		if err := s.exportPriced(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("worker cycle done priced=%d\n", processed)
	return nil
}

func (s *Service) exportPriced(ctx context.Context) error {
	priced, err := s.db.ListQuotesByStatus("priced", s.cfg.WorkerBatchSize)
	if err != nil {
		return err
	}

	for _, q := range priced {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		outputPath := filepath.Join(s.cfg.OutputDir, "worker", q.ID+".xlsx")
		if err := pipeline.ExportQuoteXLSX(s.db, q.ID, outputPath); err != nil {
			return err
		}
		_ = s.db.UpdateQuoteStatus(q.ID, "exported")
	}
	return nil
}
