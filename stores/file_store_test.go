package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buddies-social/buddies/models"
)

func TestFileStoreUploadDefaults(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileStore(db)
	ctx := context.Background()

	file, err := store.Upload(ctx, NewFile{
		UserID: 1,
		Name:   "notes.pdf",
		Type:   "application/pdf",
		Size:   "1.2 MB",
		URL:    "/storage/1/notes.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, file.Visibility, "visibility defaults to private")
	assert.Zero(t, file.Downloads)
}

func TestFileStoreUploadValidation(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileStore(db)
	ctx := context.Background()

	cases := []NewFile{
		{Name: "a", Type: "t", Size: "s", URL: "u"},
		{UserID: 1, Type: "t", Size: "s", URL: "u"},
		{UserID: 1, Name: "a", Size: "s", URL: "u"},
		{UserID: 1, Name: "a", Type: "t", URL: "u"},
		{UserID: 1, Name: "a", Type: "t", Size: "s"},
		{UserID: 1, Name: "a", Type: "t", Size: "s", URL: "u", Visibility: "everyone"},
	}
	for _, c := range cases {
		_, err := store.Upload(ctx, c)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestFileStoreSearchScopes(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileStore(db)
	ctx := context.Background()

	seed := []NewFile{
		{UserID: 1, Name: "report draft", Type: "t", Size: "s", URL: "u1", Visibility: models.VisibilityPrivate},
		{UserID: 2, Name: "report shared", Type: "t", Size: "s", URL: "u2", Visibility: models.VisibilityFriends},
		{UserID: 2, Name: "report public", Type: "t", Size: "s", URL: "u3", Visibility: models.VisibilityPublic},
		{UserID: 2, Name: "report hidden", Type: "t", Size: "s", URL: "u4", Visibility: models.VisibilityPrivate},
		{UserID: 2, Name: "unrelated", Type: "t", Size: "s", URL: "u5", Visibility: models.VisibilityPublic},
	}
	for _, f := range seed {
		_, err := store.Upload(ctx, f)
		require.NoError(t, err)
	}

	got, err := store.Search(ctx, "report", 1, true)
	require.NoError(t, err)
	assert.Len(t, got, 3, "own plus shared, never another user's private file")

	got, err = store.Search(ctx, "REPORT", 1, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "report draft", got[0].Name)
}

func TestFileStorePublicListing(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileStore(db)
	ctx := context.Background()

	for _, f := range []NewFile{
		{UserID: 1, Name: "open", Type: "t", Size: "s", URL: "u1", Visibility: models.VisibilityPublic},
		{UserID: 1, Name: "closed", Type: "t", Size: "s", URL: "u2"},
	} {
		_, err := store.Upload(ctx, f)
		require.NoError(t, err)
	}

	got, err := store.Public(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "open", got[0].Name)
}

func TestFileStoreDownloadsAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	store := NewFileStore(db)
	ctx := context.Background()

	file, err := store.Upload(ctx, NewFile{UserID: 1, Name: "slides.pptx", Type: "t", Size: "s", URL: "u"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.IncrementDownloads(ctx, file.ID))
	}
	got, err := store.GetByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Downloads)

	newName := "slides-final.pptx"
	public := models.VisibilityPublic
	require.NoError(t, store.Update(ctx, file.ID, FileUpdate{Name: &newName, Visibility: &public}))

	got, err = store.GetByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "slides-final.pptx", got.Name)
	assert.Equal(t, models.VisibilityPublic, got.Visibility)

	blank := " "
	err = store.Update(ctx, file.ID, FileUpdate{Name: &blank})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, store.Delete(ctx, file.ID))
	got, err = store.GetByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
