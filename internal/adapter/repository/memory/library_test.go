package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

func TestLibrary_TrackAndAlbum(t *testing.T) {
	lib := NewLibrary()
	ctx := context.Background()

	lib.AddAlbum(domain.Album{ID: 10, Name: "Blue", Items: []domain.Track{
		{ID: 2, Name: "b"},
		{ID: 1, Name: "a"},
	}})

	album, err := lib.Album(ctx, 10)
	require.NoError(t, err)
	require.Len(t, album.Items, 2)
	assert.Equal(t, int64(2), album.Items[0].ID, "album order is kept")

	track, err := lib.Track(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, track.Album)
	assert.Equal(t, "Blue", track.Album.Name)

	_, err = lib.Track(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrTrackNotFound)
	_, err = lib.Album(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrAlbumNotFound)
}

func TestLibrary_FolderContents(t *testing.T) {
	lib := NewLibrary()
	ctx := context.Background()

	lib.AddTrack(domain.Track{ID: 1})
	lib.AddTrack(domain.Track{ID: 2})

	root := int64(1)
	lib.AddFolder(domain.Folder{ID: root, Name: "root"}, 1)
	lib.AddFolder(domain.Folder{ID: 2, ParentID: &root, Name: "child"}, 2, 99)

	folders, tracks, err := lib.FolderContents(ctx, root)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "child", folders[0].Name)
	require.Len(t, tracks, 1)

	_, tracks, err = lib.FolderContents(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, tracks, 1, "unknown track ids are skipped")

	_, _, err = lib.FolderContents(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrFolderNotFound)
}

func TestLibrary_SaveTrack(t *testing.T) {
	lib := NewLibrary()
	ctx := context.Background()
	lib.AddTrack(domain.Track{ID: 7, Path: "/music/a.mp3"})

	saved, err := lib.SaveTrack(ctx, domain.Track{Name: "b", Path: "/music/b.mp3"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), saved.ID)

	again, err := lib.SaveTrack(ctx, domain.Track{Name: "renamed", Path: "/music/b.mp3"})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID, "same path keeps its id")

	got, err := lib.Track(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	_, err = lib.SaveTrack(ctx, domain.Track{Name: "nowhere"})
	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}
