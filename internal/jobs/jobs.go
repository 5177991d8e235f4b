// Package jobs wires scheduled maintenance work.
package jobs

import (
	"github.com/mdhub/note-service/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ScheduleTokenRotation registers the daily rotation of stale delete tokens
func ScheduleTokenRotation(c *cron.Cron, svc *service.Service, log *logrus.Logger) error {
	_, err := c.AddFunc("@daily", func() {
		if err := svc.RotateStaleDeleteTokens(); err != nil {
			log.Errorf("delete token rotation failed: %v", err)
		}
	})
	return err
}
