package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/artisan/internal/models"
	"github.com/charlesng35/artisan/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// catalogTables must exist before catalog reads can be served.
var catalogTables = []any{&models.Category{}, &models.Product{}}

// Database reports the catalog store down when the connection cannot be
// pinged or the catalog tables have not been migrated.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		pingCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(pingCtx)
		}
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		migrator := db.WithContext(pingCtx).Migrator()
		for _, table := range catalogTables {
			if !migrator.HasTable(table) {
				return monitoring.ProbeResult{
					Status:   monitoring.StatusDown,
					Details:  fmt.Sprintf("catalog table for %T missing", table),
					Duration: time.Since(start),
				}
			}
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  db.Dialector.Name(),
			Duration: time.Since(start),
		}
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
