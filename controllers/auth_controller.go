package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/config"
	"github.com/buddies-social/buddies/models"
	"github.com/buddies-social/buddies/stores"
	"github.com/buddies-social/buddies/utils"
)

const sessionDuration = 72 * time.Hour

// AuthController handles registration, login, profile setup and third-party
// providers.
type AuthController struct {
	db    *gorm.DB
	users *stores.UserStore
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db, users: stores.NewUserStore(db)}
}

// Register handles local account registration with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,min=2,max=128"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	user, err := a.users.Create(ctx.Request.Context(), stores.NewUser{
		Name:     utils.Sanitize(req.Name),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrDuplicateEmail):
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
		case errors.Is(err, stores.ErrValidation):
			utils.Error(ctx, http.StatusBadRequest, 40002, err.Error())
		default:
			utils.Sugar.Errorf("register failed: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create account")
		}
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Login verifies credentials and issues a session token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.GetByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		utils.Sugar.Errorf("login lookup failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to sign in")
		return
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40100, "invalid email or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Email, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40004, "missing bearer token")
		return
	}
	token := strings.TrimSpace(parts[1])
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		utils.BlacklistToken(token, claims.ExpiresAt.Time)
	}
	utils.Success(ctx, gin.H{"message": "signed out"})
}

// Me returns the authenticated user's full record.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	user, err := a.users.GetByID(ctx.Request.Context(), userID)
	if err != nil {
		utils.Sugar.Errorf("load current user failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile applies profile-setup fields; only provided fields change.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name           *string            `json:"name"`
		ProfileImage   *string            `json:"profile_image"`
		Bio            *string            `json:"bio"`
		School         *string            `json:"school"`
		Major          *string            `json:"major"`
		GraduationYear *string            `json:"graduation_year"`
		Interests      *string            `json:"interests"`
		PrivacySetting *models.Visibility `json:"privacy_setting"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	for _, field := range []*string{req.Name, req.Bio, req.School, req.Major} {
		if field != nil {
			*field = utils.Sanitize(*field)
		}
	}

	err := a.users.Update(ctx.Request.Context(), userID, stores.UserUpdate{
		Name:           req.Name,
		ProfileImage:   req.ProfileImage,
		Bio:            req.Bio,
		School:         req.School,
		Major:          req.Major,
		GraduationYear: req.GraduationYear,
		Interests:      req.Interests,
		PrivacySetting: req.PrivacySetting,
	})
	if err != nil {
		if errors.Is(err, stores.ErrValidation) {
			utils.Error(ctx, http.StatusBadRequest, 40006, err.Error())
			return
		}
		utils.Sugar.Errorf("profile update failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50007, "failed to update profile")
		return
	}

	utils.InvalidateByPrefix(fmt.Sprintf("cache:user:public:%d", userID))

	user, err := a.users.GetByID(ctx.Request.Context(), userID)
	if err != nil || user == nil {
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to load updated profile")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// GetUserPublic returns a user's public profile by ID, honoring the privacy
// setting.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	cacheKey := fmt.Sprintf("cache:user:public:%d", id)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	user, err := a.users.GetByID(ctx.Request.Context(), id)
	if err != nil {
		utils.Sugar.Errorf("load public user failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to get user")
		return
	}
	if user == nil {
		utils.Error(ctx, http.StatusNotFound, 40411, "user not found")
		return
	}

	payload := gin.H{"user": publicProfile(*user)}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// SearchUsers matches a query against name, email and school.
func (a *AuthController) SearchUsers(ctx *gin.Context) {
	query := strings.TrimSpace(ctx.Query("q"))
	if query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40007, "missing search query")
		return
	}
	limit := intQuery(ctx, "limit", 10)

	users, err := a.users.Search(ctx.Request.Context(), query, limit)
	if err != nil {
		utils.Sugar.Errorf("user search failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50009, "failed to search users")
		return
	}

	items := make([]gin.H, 0, len(users))
	for _, u := range users {
		items = append(items, publicProfile(u))
	}
	utils.Success(ctx, gin.H{"items": items})
}

// publicProfile projects a user onto their externally visible fields. Private
// profiles expose only name and picture.
func publicProfile(u models.User) gin.H {
	if u.PrivacySetting == models.VisibilityPrivate {
		return gin.H{
			"id":            u.ID,
			"name":          u.Name,
			"profile_image": u.ProfileImage,
		}
	}
	return gin.H{
		"id":              u.ID,
		"name":            u.Name,
		"profile_image":   u.ProfileImage,
		"bio":             u.Bio,
		"school":          u.School,
		"major":           u.Major,
		"graduation_year": u.GraduationYear,
		"interests":       u.Interests,
	}
}

// OAuthRedirect begins a provider login by redirecting to the consent page.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	conf, err := a.oauthConfig(ctx.Param("provider"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40008, err.Error())
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

// OAuthCallback completes a provider login, creating the account on first use.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := strings.ToLower(ctx.Param("provider"))
	state := ctx.Query("state")
	code := ctx.Query("code")
	if state == "" || code == "" || !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40009, "invalid oauth state")
		return
	}

	conf, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40008, err.Error())
		return
	}
	token, err := conf.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Sugar.Warnf("oauth exchange failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50210, "provider exchange failed")
		return
	}

	info, err := fetchOAuthUser(provider, token)
	if err != nil {
		utils.Sugar.Warnf("oauth userinfo failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50211, "failed to fetch provider profile")
		return
	}

	user, err := a.findOrCreateOAuthUser(ctx.Request.Context(), provider, info)
	if err != nil {
		utils.Sugar.Errorf("oauth user upsert failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50212, "failed to sign in")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Email, sessionDuration)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to generate token")
		return
	}

	redirect := fmt.Sprintf("%s/auth/callback?token=%s", config.Get().OAuthRedirectBase, jwtToken)
	ctx.Redirect(http.StatusFound, redirect)
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type oauthUser struct {
	ID           string
	Name         string
	Email        string
	ProfileImage string
}

func (a *AuthController) findOrCreateOAuthUser(ctx context.Context, provider string, data *oauthUser) (*models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("provider = ? AND provider_id = ?", provider, data.ID).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// A local account with the same verified email claims the identity.
	if email := strings.TrimSpace(data.Email); email != "" {
		if existing, err := a.users.GetByEmail(ctx, email); err == nil && existing != nil {
			updates := map[string]interface{}{"provider": provider, "provider_id": data.ID}
			if err := a.db.WithContext(ctx).Model(existing).Updates(updates).Error; err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	user = models.User{
		Name:         strings.TrimSpace(data.Name),
		Email:        strings.ToLower(strings.TrimSpace(data.Email)),
		Provider:     provider,
		ProviderID:   data.ID,
		ProfileImage: data.ProfileImage,
	}
	if user.Name == "" {
		user.Name = provider + " user"
	}
	if err := a.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func fetchOAuthUser(provider string, token *oauth2.Token) (*oauthUser, error) {
	switch provider {
	case "github":
		return fetchGitHubUser(token)
	case "google":
		return fetchGoogleUser(token)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchGitHubUser(token *oauth2.Token) (*oauthUser, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	name := payload.Name
	if name == "" {
		name = payload.Login
	}
	return &oauthUser{
		ID:           fmt.Sprintf("%d", payload.ID),
		Name:         name,
		Email:        payload.Email,
		ProfileImage: payload.AvatarURL,
	}, nil
}

func fetchGoogleUser(token *oauth2.Token) (*oauthUser, error) {
	req, _ := http.NewRequest("GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google user info request failed: %s", resp.Status)
	}

	var payload struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &oauthUser{
		ID:           payload.ID,
		Name:         payload.Name,
		Email:        payload.Email,
		ProfileImage: payload.Picture,
	}, nil
}
