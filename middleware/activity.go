package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buddies-social/buddies/models"
)

// ActivityRecorder aggregates successful GET traffic per day and path. The
// admin dashboard reads these rows for its daily-active figure.
func ActivityRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		// Skip endpoints that would skew the figures.
		if path == "/health" || strings.HasPrefix(path, "/api/v1/admin/") {
			return
		}

		// Atomic upsert so concurrent requests never hit duplicate-key errors.
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.ActivityStat{Date: models.ActivityDay(time.Now()), Path: path, Count: 1}).Error
	}
}
