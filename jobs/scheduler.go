// Package jobs wires the periodic batch work (cron). The forfeiture sweep
// runs nightly; an external scheduler can also trigger it over HTTP.
package jobs

import (
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/lablinkriparo/riparo-be/config"
	"github.com/lablinkriparo/riparo-be/services"
	"github.com/lablinkriparo/riparo-be/websocket"
)

type Scheduler struct {
	cron       *cron.Cron
	forfeiture *services.ForfeitureService
}

func NewScheduler(forfeiture *services.ForfeitureService) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		forfeiture: forfeiture,
	}
}

// Start registers and launches the background jobs.
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(config.C.ForfeitureSchedule, func() {
		log.Info("[CRON] Running forfeiture check")
		result, err := s.forfeiture.Sweep()
		if err != nil {
			log.WithError(err).Error("[CRON] Forfeiture check failed")
			return
		}
		if config.WSHub != nil {
			config.WSHub.BroadcastEvent(websocket.EventForfeitureCompleted, websocket.ForfeitureEvent{
				WarningsSent: result.WarningsSent,
				Forfeited:    result.Forfeited,
			})
		}
	})
	if err != nil {
		log.WithError(err).Error("[CRON] Invalid forfeiture schedule")
		return
	}

	s.cron.Start()
	log.WithField("schedule", config.C.ForfeitureSchedule).Info("[CRON] Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[CRON] Scheduler stopped")
}
