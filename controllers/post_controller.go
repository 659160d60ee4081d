package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/middleware"
	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/stores"
	"github.com/buddies-social/buddies/utils"
)

// PostController manages the feed: post CRUD and engagement counters.
type PostController struct {
	db    *gorm.DB
	posts *stores.PostStore
	users *stores.UserStore
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db, posts: stores.NewPostStore(db), users: stores.NewUserStore(db)}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
		Image   string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), userID, utils.Sanitize(req.Content), req.Image)
	if err != nil {
		if errors.Is(err, stores.ErrValidation) {
			utils.Error(ctx, http.StatusBadRequest, 40021, err.Error())
			return
		}
		utils.Sugar.Errorf("create post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.Success(ctx, gin.H{"post": post})
}

// Feed returns paginated posts including author information, newest first.
func (p *PostController) Feed(ctx *gin.Context) {
	limit := intQuery(ctx, "limit", 10)
	offset := intQuery(ctx, "offset", 0)

	cacheKey := fmt.Sprintf("cache:feed:limit=%d:offset=%d", limit, offset)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, err := p.posts.Feed(ctx.Request.Context(), limit, offset)
	if err != nil {
		utils.Sugar.Errorf("load feed failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load feed")
		return
	}

	payload := gin.H{"items": posts}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Minute)
	utils.Success(ctx, payload)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	post, err := p.posts.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}
	if post == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// ListUserPosts returns posts created by a specific user.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	limit := intQuery(ctx, "limit", 10)
	offset := intQuery(ctx, "offset", 0)

	posts, err := p.posts.ByUser(ctx.Request.Context(), id, limit, offset)
	if err != nil {
		utils.Sugar.Errorf("load user posts failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to load posts")
		return
	}
	utils.Success(ctx, gin.H{"items": posts})
}

// SearchPosts matches a query against post content.
func (p *PostController) SearchPosts(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("q"))
	if query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "missing search query")
		return
	}
	posts, err := p.posts.Search(ctx.Request.Context(), query, intQuery(ctx, "limit", 10))
	if err != nil {
		utils.Sugar.Errorf("search posts failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to search posts")
		return
	}
	utils.Success(ctx, gin.H{"items": posts})
}

// UpdatePost allows the author (or an admin) to edit their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req struct {
		Content *string `json:"content"`
		Image   *string `json:"image"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}
	if req.Content != nil {
		*req.Content = utils.Sanitize(*req.Content)
	}

	post, ok := p.loadOwnedPost(ctx, id)
	if !ok {
		return
	}

	if err := p.posts.Update(ctx.Request.Context(), post.ID, stores.PostUpdate{Content: req.Content, Image: req.Image}); err != nil {
		if errors.Is(err, stores.ErrValidation) {
			utils.Error(ctx, http.StatusBadRequest, 40024, err.Error())
			return
		}
		utils.Sugar.Errorf("update post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.Success(ctx, gin.H{"message": "post updated"})
}

// DeletePost allows the author (or an admin) to delete their post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	post, ok := p.loadOwnedPost(ctx, id)
	if !ok {
		return
	}

	if err := p.posts.Delete(ctx.Request.Context(), post.ID); err != nil {
		utils.Sugar.Errorf("delete post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:feed:")
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// LikePost bumps the like counter.
func (p *PostController) LikePost(ctx *gin.Context) {
	p.bump(ctx, p.posts.Like, "like")
}

// CommentPost bumps the comment counter.
func (p *PostController) CommentPost(ctx *gin.Context) {
	p.bump(ctx, p.posts.AddComment, "comment")
}

// SharePost bumps the share counter.
func (p *PostController) SharePost(ctx *gin.Context) {
	p.bump(ctx, p.posts.Share, "share")
}

func (p *PostController) bump(ctx *gin.Context, fn func(ctx context.Context, id uint) error, action string) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	if err := fn(ctx.Request.Context(), id); err != nil {
		utils.Sugar.Errorf("%s post failed: %v", action, err)
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to "+action+" post")
		return
	}
	utils.InvalidateByPrefix("cache:feed:")
	utils.Success(ctx, gin.H{"message": action + " recorded"})
}

// loadOwnedPost fetches the post and enforces owner-or-admin access.
func (p *PostController) loadOwnedPost(ctx *gin.Context, id uint) (*models.Post, bool) {
	post, err := p.posts.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load post failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return nil, false
	}
	if post == nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return nil, false
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	if post.UserID != userID && !p.isAdmin(ctx, userID) {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only modify your own posts")
		return nil, false
	}
	return post, true
}

func (p *PostController) isAdmin(ctx *gin.Context, userID uint) bool {
	user, err := p.users.GetByID(ctx.Request.Context(), userID)
	return err == nil && user != nil && user.IsAdmin
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param(name))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func intQuery(ctx *gin.Context, name string, def int) int {
	if v, err := strconv.Atoi(ctx.Query(name)); err == nil && v >= 0 {
		if name == "limit" && (v == 0 || v > 100) {
			return def
		}
		return v
	}
	return def
}
