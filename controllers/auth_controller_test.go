package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buddies-social/buddies/config"
	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/utils"
)

func TestGetUserPublicLoadFailureCode(t *testing.T) {
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret"})
	require.NoError(t, utils.InitLogger(config.AppConfig{}))
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	// Drop the table so the lookup fails with a storage error, not not-found.
	require.NoError(t, db.Migrator().DropTable(&models.User{}))

	auth := NewAuthController(db)
	r := gin.New()
	r.GET("/api/v1/users/:id", auth.GetUserPublic)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":50010`, "profile-load failure keeps its own envelope code")
}
