package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/utils"
)

// StatsController serves the admin dashboard aggregates.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// Overview returns entity totals plus today's recorded activity.
func (s *StatsController) Overview(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())

	var users, posts, messages, files int64
	for _, c := range []struct {
		model any
		dest  *int64
	}{
		{&models.User{}, &users},
		{&models.Post{}, &posts},
		{&models.Message{}, &messages},
		{&models.File{}, &files},
	} {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			utils.Sugar.Errorf("count stats failed: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load statistics")
			return
		}
	}

	today := models.ActivityDay(time.Now())
	var todayRequests int64
	if err := db.Model(&models.ActivityStat{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count), 0)").
		Scan(&todayRequests).Error; err != nil {
		utils.Sugar.Errorf("sum activity failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to load statistics")
		return
	}

	utils.Success(ctx, gin.H{
		"users":          users,
		"posts":          posts,
		"messages":       messages,
		"files":          files,
		"today_requests": todayRequests,
	})
}

// DailyActivity returns per-day request totals for the last N days
// (default 30), newest first.
func (s *StatsController) DailyActivity(ctx *gin.Context) {
	days := intQuery(ctx, "days", 30)
	since := models.ActivityDay(time.Now().AddDate(0, 0, -days))

	type dayRow struct {
		Date  time.Time `json:"date"`
		Total int64     `json:"total"`
	}
	var rows []dayRow
	if err := s.db.WithContext(ctx.Request.Context()).
		Model(&models.ActivityStat{}).
		Where("date >= ?", since).
		Select("date, SUM(count) AS total").
		Group("date").
		Order("date DESC").
		Scan(&rows).Error; err != nil {
		utils.Sugar.Errorf("load daily activity failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load activity")
		return
	}
	utils.Success(ctx, gin.H{"days": rows})
}

// TopPaths returns the most-requested paths over the last N days.
func (s *StatsController) TopPaths(ctx *gin.Context) {
	days := intQuery(ctx, "days", 7)
	since := models.ActivityDay(time.Now().AddDate(0, 0, -days))

	type pathRow struct {
		Path  string `json:"path"`
		Total int64  `json:"total"`
	}
	var rows []pathRow
	if err := s.db.WithContext(ctx.Request.Context()).
		Model(&models.ActivityStat{}).
		Where("date >= ?", since).
		Select("path, SUM(count) AS total").
		Group("path").
		Order("total DESC").
		Limit(intQuery(ctx, "limit", 10)).
		Scan(&rows).Error; err != nil {
		utils.Sugar.Errorf("load top paths failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to load activity")
		return
	}
	utils.Success(ctx, gin.H{"paths": rows})
}

// ListUsers pages through all accounts for the admin user table.
func (s *StatsController) ListUsers(ctx *gin.Context) {
	var users []models.User
	if err := s.db.WithContext(ctx.Request.Context()).
		Order("created_at DESC").
		Limit(intQuery(ctx, "limit", 20)).
		Offset(intQuery(ctx, "offset", 0)).
		Find(&users).Error; err != nil {
		utils.Sugar.Errorf("list users failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to list users")
		return
	}
	utils.Success(ctx, gin.H{"items": users})
}
