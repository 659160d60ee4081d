package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/stores"
	"github.com/buddies-social/buddies/utils"
)

// FileController manages uploaded-file metadata. The bytes themselves are
// moved by an external upload transport; this surface records the durable URL
// and serves search, visibility and download counting.
type FileController struct {
	db    *gorm.DB
	files *stores.FileStore
	users *stores.UserStore
}

// NewFileController creates a new FileController instance.
func NewFileController(db *gorm.DB) *FileController {
	return &FileController{db: db, files: stores.NewFileStore(db), users: stores.NewUserStore(db)}
}

// UploadFile records metadata for a completed upload. When the transport has
// not assigned a URL yet, one is minted from a fresh object key.
func (f *FileController) UploadFile(ctx *gin.Context) {
	var req struct {
		Name       string            `json:"name" binding:"required"`
		Type       string            `json:"type" binding:"required"`
		Size       string            `json:"size" binding:"required"`
		URL        string            `json:"url"`
		Visibility models.Visibility `json:"visibility"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = fmt.Sprintf("/storage/%d/%s", userID, uuid.NewString())
	}

	file, err := f.files.Upload(ctx.Request.Context(), stores.NewFile{
		UserID:     userID,
		Name:       utils.Sanitize(req.Name),
		Type:       req.Type,
		Size:       req.Size,
		URL:        url,
		Visibility: req.Visibility,
	})
	if err != nil {
		if errors.Is(err, stores.ErrValidation) {
			utils.Error(ctx, http.StatusBadRequest, 40041, err.Error())
			return
		}
		utils.Sugar.Errorf("record file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to record file")
		return
	}

	utils.Success(ctx, gin.H{"file": file})
}

// ListMyFiles returns the authenticated user's files.
func (f *FileController) ListMyFiles(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	files, err := f.files.ByUser(ctx.Request.Context(), userID, intQuery(ctx, "limit", 20), intQuery(ctx, "offset", 0))
	if err != nil {
		utils.Sugar.Errorf("list files failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to list files")
		return
	}
	utils.Success(ctx, gin.H{"items": files})
}

// ListPublicFiles returns publicly shared files.
func (f *FileController) ListPublicFiles(ctx *gin.Context) {
	files, err := f.files.Public(ctx.Request.Context(), intQuery(ctx, "limit", 20), intQuery(ctx, "offset", 0))
	if err != nil {
		utils.Sugar.Errorf("list public files failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list files")
		return
	}
	utils.Success(ctx, gin.H{"items": files})
}

// SearchFiles matches a query against file names in the user's own files,
// optionally widened to shared files.
func (f *FileController) SearchFiles(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("q"))
	if query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40042, "missing search query")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	includeShared := ctx.DefaultQuery("include_shared", "true") == "true"

	files, err := f.files.Search(ctx.Request.Context(), query, userID, includeShared)
	if err != nil {
		utils.Sugar.Errorf("search files failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to search files")
		return
	}
	utils.Success(ctx, gin.H{"items": files})
}

// DownloadFile bumps the download counter and returns the durable URL.
func (f *FileController) DownloadFile(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	file, err := f.files.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load file")
		return
	}
	if file == nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "file not found")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if file.Visibility == models.VisibilityPrivate && file.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40340, "file is private")
		return
	}

	if err := f.files.IncrementDownloads(ctx.Request.Context(), id); err != nil {
		utils.Sugar.Errorf("increment downloads failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to record download")
		return
	}
	utils.Success(ctx, gin.H{"url": file.URL})
}

// UpdateFile renames a file or changes its visibility; owner only.
func (f *FileController) UpdateFile(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Name       *string            `json:"name"`
		Visibility *models.Visibility `json:"visibility"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}
	if req.Name != nil {
		*req.Name = utils.Sanitize(*req.Name)
	}

	file, ok := f.loadOwnedFile(ctx, id)
	if !ok {
		return
	}

	if err := f.files.Update(ctx.Request.Context(), file.ID, stores.FileUpdate{Name: req.Name, Visibility: req.Visibility}); err != nil {
		if errors.Is(err, stores.ErrValidation) {
			utils.Error(ctx, http.StatusBadRequest, 40044, err.Error())
			return
		}
		utils.Sugar.Errorf("update file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to update file")
		return
	}
	utils.Success(ctx, gin.H{"message": "file updated"})
}

// DeleteFile removes a file record; owner or admin only.
func (f *FileController) DeleteFile(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	file, ok := f.loadOwnedFile(ctx, id)
	if !ok {
		return
	}

	if err := f.files.Delete(ctx.Request.Context(), file.ID); err != nil {
		utils.Sugar.Errorf("delete file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to delete file")
		return
	}
	utils.Success(ctx, gin.H{"message": "file deleted"})
}

func (f *FileController) loadOwnedFile(ctx *gin.Context, id uint) (*models.File, bool) {
	file, err := f.files.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load file failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load file")
		return nil, false
	}
	if file == nil {
		utils.Error(ctx, http.StatusNotFound, 40440, "file not found")
		return nil, false
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	if file.UserID != userID && !f.isAdmin(ctx, userID) {
		utils.Error(ctx, http.StatusForbidden, 40341, "you can only modify your own files")
		return nil, false
	}
	return file, true
}

func (f *FileController) isAdmin(ctx *gin.Context, userID uint) bool {
	user, err := f.users.GetByID(ctx.Request.Context(), userID)
	return err == nil && user != nil && user.IsAdmin
}
