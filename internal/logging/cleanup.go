package logging

import (
	"log/slog"
	"time"

	"github.com/linkfro/linkfro-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cleanupSchedule runs retention daily at 03:15 UTC.
const cleanupSchedule = "CRON_TZ=UTC 15 3 * * *"

// StartCleanup schedules deletion of system_logs older than retentionDays.
// Stop the returned scheduler on shutdown.
func StartCleanup(db *gorm.DB, retentionDays int) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(cleanupSchedule, func() {
		PurgeSystemLogs(db, retentionDays, time.Now())
	}); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// PurgeSystemLogs deletes system_logs rows older than retentionDays before now.
func PurgeSystemLogs(db *gorm.DB, retentionDays int, now time.Time) int64 {
	cutoff := now.AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "action", "log_cleanup", "error", result.Error.Error())
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
