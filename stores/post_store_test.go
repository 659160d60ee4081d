package stores

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/buddies-social/buddies/models"
)

func seedUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user, err := NewUserStore(db).Create(context.Background(), NewUser{
		Name:     name,
		Email:    name + "@example.com",
		Password: "p",
	})
	require.NoError(t, err)
	return user
}

func TestPostStoreCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostStore(db)
	ctx := context.Background()

	_, err := store.Create(ctx, 1, "   ", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = store.Create(ctx, 0, "hello", "")
	assert.ErrorIs(t, err, ErrValidation)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count, "no rows persisted for invalid input")
}

func TestPostStoreFeedOrdering(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostStore(db)
	ctx := context.Background()
	author := seedUser(t, db, "author")

	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"first", "second", "third"} {
		post := models.Post{UserID: author.ID, Content: content, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, db.Create(&post).Error)
	}

	feed, err := store.Feed(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "third", feed[0].Content, "newest first")
	assert.Equal(t, "second", feed[1].Content)
	assert.Equal(t, "first", feed[2].Content)
	assert.Equal(t, "author", feed[0].User.Name, "author preloaded")

	page, err := store.Feed(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "first", page[0].Content, "offset pagination")
}

func TestPostStoreCounters(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostStore(db)
	ctx := context.Background()
	author := seedUser(t, db, "counter")

	post, err := store.Create(ctx, author.ID, "count me", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Like(ctx, post.ID))
	}
	require.NoError(t, store.AddComment(ctx, post.ID))
	require.NoError(t, store.AddComment(ctx, post.ID))
	require.NoError(t, store.Share(ctx, post.ID))

	got, err := store.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Likes)
	assert.Equal(t, 2, got.Comments)
	assert.Equal(t, 1, got.Shares)
}

func TestPostStoreConcurrentCounters(t *testing.T) {
	db := setupTestDB(t)
	// One connection keeps the in-memory database shared across goroutines;
	// the increments themselves still race at the application level.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewPostStore(db)
	ctx := context.Background()
	author := seedUser(t, db, "raced")

	post, err := store.Create(ctx, author.ID, "race me", "")
	require.NoError(t, err)

	const n = 25
	errs := make(chan error, 2*n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- store.Like(ctx, post.ID)
		}()
		go func() {
			defer wg.Done()
			errs <- store.Share(ctx, post.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.Likes, "no lost updates")
	assert.Equal(t, n, got.Shares)
}

func TestPostStoreUpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostStore(db)
	ctx := context.Background()
	author := seedUser(t, db, "editor")

	post, err := store.Create(ctx, author.ID, "draft", "old.png")
	require.NoError(t, err)

	newContent := "final"
	require.NoError(t, store.Update(ctx, post.ID, PostUpdate{Content: &newContent}))

	got, err := store.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)
	assert.Equal(t, "old.png", got.Image, "untouched field survives")

	blank := ""
	err = store.Update(ctx, post.ID, PostUpdate{Content: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, store.Delete(ctx, post.ID))
	got, err = store.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPostStoreSearch(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostStore(db)
	ctx := context.Background()
	author := seedUser(t, db, "searcher")

	for _, content := range []string{"Study group tonight", "Lost my keys", "study tips anyone?"} {
		_, err := store.Create(ctx, author.ID, content, "")
		require.NoError(t, err)
	}

	got, err := store.Search(ctx, "STUDY", 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
