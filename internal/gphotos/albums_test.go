package gphotos

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAlbum_ExistingMatchIsCaseInsensitive(t *testing.T) {
	h := &fakePhotos{
		albumPages: [][]Album{
			{{ID: "album-1", Title: "Trip"}},
		},
	}
	client := newTestClient(t, h)

	id, err := client.ResolveAlbum(context.Background(), "tRiP")
	require.NoError(t, err)
	assert.Equal(t, "album-1", id)
	assert.Equal(t, 1, h.listCalls)
	assert.Equal(t, 0, h.createCalls, "existing album must not trigger a create")
}

func TestResolveAlbum_ListingRequestsAppCreatedOnly(t *testing.T) {
	h := &fakePhotos{
		albumPages: [][]Album{
			{{ID: "album-1", Title: "Trip"}},
		},
	}
	client := newTestClient(t, h)

	_, err := client.ResolveAlbum(context.Background(), "Trip")
	require.NoError(t, err)
	assert.Equal(t, "true", h.lastListQuery.Get("excludeNonAppCreatedData"))
}

func TestResolveAlbum_CreatesWhenAbsent(t *testing.T) {
	h := &fakePhotos{createID: "new-album-1"}
	client := newTestClient(t, h)

	id, err := client.ResolveAlbum(context.Background(), "Trip Photos")
	require.NoError(t, err)
	assert.Equal(t, "new-album-1", id)
	assert.Equal(t, 1, h.createCalls)
	// The create request carries the exact requested title, not a
	// lower-cased form.
	assert.Equal(t, []string{"Trip Photos"}, h.createdTitles)
}

func TestResolveAlbum_SecondCallUsesMemo(t *testing.T) {
	h := &fakePhotos{createID: "new-album-1"}
	client := newTestClient(t, h)

	first, err := client.ResolveAlbum(context.Background(), "Trip")
	require.NoError(t, err)
	second, err := client.ResolveAlbum(context.Background(), "Trip")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.createCalls, "same title must not be created twice in one run")
	assert.Equal(t, 1, h.listCalls, "memoized resolution must not re-list")
}

func TestResolveAlbum_MatchOnSecondPage(t *testing.T) {
	h := &fakePhotos{
		albumPages: [][]Album{
			{{ID: "album-1", Title: "Other"}, {ID: "album-2", Title: "Misc"}},
			{{ID: "album-3", Title: "Trip"}},
		},
	}
	client := newTestClient(t, h)

	id, err := client.ResolveAlbum(context.Background(), "Trip")
	require.NoError(t, err)
	assert.Equal(t, "album-3", id)
	assert.Equal(t, 2, h.listCalls)
	assert.Equal(t, "page-1", h.lastListQuery.Get("pageToken"))
	assert.Equal(t, 0, h.createCalls)
}

func TestResolveAlbum_StopsPagingOnEarlyMatch(t *testing.T) {
	h := &fakePhotos{
		albumPages: [][]Album{
			{{ID: "album-1", Title: "Trip"}},
			{{ID: "album-2", Title: "Other"}},
		},
	}
	client := newTestClient(t, h)

	_, err := client.ResolveAlbum(context.Background(), "Trip")
	require.NoError(t, err)
	assert.Equal(t, 1, h.listCalls, "match on page 1 must not fetch page 2")
}

func TestResolveAlbum_CreateResponseMissingID(t *testing.T) {
	h := &fakePhotos{createOmitID: true}
	client := newTestClient(t, h)

	_, err := client.ResolveAlbum(context.Background(), "Trip")
	require.Error(t, err)

	var albumErr *AlbumError
	require.ErrorAs(t, err, &albumErr)
	assert.Equal(t, "Trip", albumErr.Title)
	assert.ErrorIs(t, err, ErrAlbumUnresolved)
}

func TestResolveAlbum_ListFailure(t *testing.T) {
	h := &fakePhotos{listFailures: 99}
	client := newTestClient(t, h)

	_, err := client.ResolveAlbum(context.Background(), "Trip")
	require.Error(t, err)

	var albumErr *AlbumError
	require.ErrorAs(t, err, &albumErr)
	assert.Equal(t, "Trip", albumErr.Title)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, 0, h.createCalls, "listing failure must not fall through to create")
}

func TestResolveAlbum_CreateFailure(t *testing.T) {
	h := &fakePhotos{createFail: true}
	client := newTestClient(t, h)

	_, err := client.ResolveAlbum(context.Background(), "Trip")
	require.Error(t, err)

	var albumErr *AlbumError
	require.ErrorAs(t, err, &albumErr)
	assert.False(t, errors.Is(err, ErrAlbumUnresolved))
}
