package middleware

import (
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
	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/utils"
)

func setupAuthTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	config.SetForTest(config.AppConfig{JWTSecret: "test-secret", RateLimitPerMinute: 1000})
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	r := gin.New()
	r.GET("/protected", AuthRequired(), func(c *gin.Context) {
		id, _ := c.Get(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(db), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, db
}

func doRequest(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r, _ := setupAuthTest(t)

	w := doRequest(r, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing header")

	w = doRequest(r, "/protected", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "malformed token")

	token, err := utils.GenerateToken(7, "u@example.com", time.Hour)
	require.NoError(t, err)
	w = doRequest(r, "/protected", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestAuthRequiredRevokedToken(t *testing.T) {
	r, _ := setupAuthTest(t)

	token, err := utils.GenerateToken(8, "gone@example.com", time.Hour)
	require.NoError(t, err)

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	w := doRequest(r, "/protected", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "revoked token is rejected")
}

func TestAdminRequired(t *testing.T) {
	r, db := setupAuthTest(t)

	regular := models.User{Name: "Regular", Email: "regular@example.com"}
	require.NoError(t, db.Create(&regular).Error)
	admin := models.User{Name: "Admin", Email: "admin@example.com", IsAdmin: true}
	require.NoError(t, db.Create(&admin).Error)

	token, err := utils.GenerateToken(regular.ID, regular.Email, time.Hour)
	require.NoError(t, err)
	w := doRequest(r, "/admin", token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	token, err = utils.GenerateToken(admin.ID, admin.Email, time.Hour)
	require.NoError(t, err)
	w = doRequest(r, "/admin", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
