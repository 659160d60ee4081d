package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buddies-social/buddies/config"
	"github.com/buddies-social/buddies/middleware"
	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/utils"
)

// forceOffsetTimezone pins time.Local to a zone whose calendar date currently
// differs from the UTC date, whichever side of UTC that requires right now.
func forceOffsetTimezone(t *testing.T) {
	t.Helper()
	name, offset := "UTC+14", 14*3600
	if time.Now().UTC().Hour() < 12 {
		name, offset = "UTC-12", -12*3600
	}
	orig := time.Local
	time.Local = time.FixedZone(name, offset)
	t.Cleanup(func() { time.Local = orig })
}

func setupStatsTest(t *testing.T) *gin.Engine {
	t.Helper()
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})
	require.NoError(t, utils.InitLogger(config.AppConfig{}))
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Message{}, &models.File{}, &models.ActivityStat{}))

	stats := NewStatsController(db)
	r := gin.New()
	r.Use(middleware.ActivityRecorder(db))
	r.GET("/api/v1/posts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"items": []string{}})
	})
	r.GET("/api/v1/admin/stats", stats.Overview)
	r.GET("/api/v1/admin/stats/daily", stats.DailyActivity)
	return r
}

func statsGet(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w
}

func TestStatsOverviewCountsCurrentLocalDay(t *testing.T) {
	forceOffsetTimezone(t)
	r := setupStatsTest(t)

	statsGet(t, r, "/api/v1/posts")

	w := statsGet(t, r, "/api/v1/admin/stats")
	var resp struct {
		Data struct {
			TodayRequests int64 `json:"today_requests"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Data.TodayRequests, "traffic recorded today is visible today")
}

func TestStatsDailyActivityIncludesCurrentLocalDay(t *testing.T) {
	forceOffsetTimezone(t)
	r := setupStatsTest(t)

	statsGet(t, r, "/api/v1/posts")
	statsGet(t, r, "/api/v1/posts")

	w := statsGet(t, r, "/api/v1/admin/stats/daily")
	var resp struct {
		Data struct {
			Days []struct {
				Total int64 `json:"total"`
			} `json:"days"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Days, 1)
	assert.EqualValues(t, 2, resp.Data.Days[0].Total)
}
