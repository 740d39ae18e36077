// Package scheduler runs the periodic voice accrual sweep.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/Kurdishgpt/Slaw/internal/services"
	"github.com/Kurdishgpt/Slaw/pkg/logger"
)

// VoiceSweeper drives AwardService.SweepVoicePoints on a fixed interval
type VoiceSweeper struct {
	cron         *cron.Cron
	awardService *services.AwardService
}

// NewVoiceSweeper creates a new VoiceSweeper
func NewVoiceSweeper(awardService *services.AwardService) *VoiceSweeper {
	return &VoiceSweeper{
		cron:         cron.New(),
		awardService: awardService,
	}
}

// Start registers the sweep job and starts the timer
func (s *VoiceSweeper) Start() error {
	_, err := s.cron.AddFunc("@every 5m", func() {
		s.awardService.SweepVoicePoints(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("voice sweeper started")
	return nil
}

// Stop halts the timer and waits for an in-flight sweep to finish so no
// award is aborted mid-write
func (s *VoiceSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("voice sweeper stopped")
}
