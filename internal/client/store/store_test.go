package store

import (
	"testing"

	"github.com/dkotlyar/snipstash/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snippet(id int64, title string) models.Snippet {
	return models.Snippet{ID: id, Title: title, ContentType: models.ContentTypeText, Content: "c"}
}

func TestAdd_NewestFirstOrdering(t *testing.T) {
	s := New()
	s.Add(snippet(100, "oldest"))
	s.Add(snippet(300, "newest"))
	s.Add(snippet(200, "middle"))

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{snap[0].ID, snap[1].ID, snap[2].ID})
}

func TestAdd_SameIDReplaces(t *testing.T) {
	s := New()
	s.Add(snippet(1, "a"))
	s.Add(snippet(1, "b"))

	require.Equal(t, 1, s.Len())
	got, ok := s.FindByID(1)
	require.True(t, ok)
	assert.Equal(t, "b", got.Title)
}

func TestRemoveAndRollbackPosition(t *testing.T) {
	s := New()
	s.Add(snippet(100, "a"))
	s.Add(snippet(200, "b"))
	s.Add(snippet(300, "c"))

	removed := s.Remove(200)
	require.True(t, removed)
	assert.Equal(t, 2, s.Len())

	// rollback re-insert lands back in the middle
	s.Add(snippet(200, "b"))
	snap := s.Snapshot()
	assert.Equal(t, []int64{300, 200, 100}, []int64{snap[0].ID, snap[1].ID, snap[2].ID})

	assert.False(t, s.Remove(999))
}

func TestReplaceAll_CarriesForwardFileURLs(t *testing.T) {
	s := New()
	old := snippet(100, "file")
	old.ContentType = models.ContentTypeImage
	old.StoragePath = "100/1.png"
	old.FileURL = "https://blob/signed"
	s.Add(old)
	s.Add(snippet(200, "text"))

	fresh := []models.Snippet{
		{ID: 100, Title: "file", ContentType: models.ContentTypeImage, StoragePath: "100/1.png"},
		{ID: 200, Title: "text renamed", ContentType: models.ContentTypeText, Content: "c"},
		{ID: 300, Title: "brand new", ContentType: models.ContentTypeText, Content: "c"},
	}
	s.ReplaceAll(fresh)

	got, ok := s.FindByID(100)
	require.True(t, ok)
	assert.Equal(t, "https://blob/signed", got.FileURL, "signed URL survives the refresh")

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(300), snap[0].ID)
	assert.Equal(t, "text renamed", snap[1].Title)
}

func TestSetFileURL(t *testing.T) {
	s := New()
	s.Add(snippet(1, "a"))

	require.True(t, s.SetFileURL(1, "https://signed"))
	got, _ := s.FindByID(1)
	assert.Equal(t, "https://signed", got.FileURL)

	assert.False(t, s.SetFileURL(2, "x"))
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := New()
	s.Add(snippet(1, "a"))

	snap := s.Snapshot()
	snap[0].Title = "mutated"

	got, _ := s.FindByID(1)
	assert.Equal(t, "a", got.Title)
}
