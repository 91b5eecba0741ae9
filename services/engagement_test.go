package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
	"github.com/collegelover/college-lover-api/ws"
)

func TestTrackDownloadCountsEveryCall(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMaterialService(db, testLogger(), WithPublisher(pub))
	ctx := context.Background()

	owner := seedUser(t, db, "owner", models.RoleStudent)
	m := seedMaterial(t, db, materialSeed{title: "popular", downloads: 3, approved: true, owner: owner.ID})

	var last int64
	for i := 0; i < 5; i++ {
		n, err := svc.TrackDownload(ctx, m.ID)
		require.NoError(t, err)
		last = n
	}
	assert.Equal(t, int64(8), last)
	assert.Len(t, pub.types(), 5)
	assert.Equal(t, ws.EventDownloadUpdated, pub.types()[0])

	_, err := svc.TrackDownload(ctx, uuid.New())
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestToggleLikeTwiceRestoresState(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db, testLogger())
	ctx := context.Background()

	owner := seedUser(t, db, "owner", models.RoleStudent)
	fan := seedUser(t, db, "fan", models.RoleStudent)
	m := seedMaterial(t, db, materialSeed{title: "liked", approved: true, owner: owner.ID})

	_, err := svc.ToggleLike(ctx, m.ID, owner.ID)
	require.NoError(t, err)

	state, err := svc.ToggleLike(ctx, m.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, state.Liked)
	assert.Equal(t, 2, state.LikeCount)

	state, err = svc.ToggleLike(ctx, m.ID, fan.ID)
	require.NoError(t, err)
	assert.False(t, state.Liked)
	assert.Equal(t, 1, state.LikeCount)

	loaded, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, loaded.LikedBy(owner.ID))
	assert.False(t, loaded.LikedBy(fan.ID))

	_, err = svc.ToggleLike(ctx, uuid.New(), fan.ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestToggleBookmark(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db, testLogger())
	ctx := context.Background()

	owner := seedUser(t, db, "owner", models.RoleStudent)
	a := seedMaterial(t, db, materialSeed{title: "a", approved: true, owner: owner.ID})
	b := seedMaterial(t, db, materialSeed{title: "b", approved: true, owner: owner.ID})

	state, err := svc.ToggleBookmark(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, state.Bookmarked)
	assert.Equal(t, []uuid.UUID{a.ID}, state.Bookmarks)

	state, err = svc.ToggleBookmark(ctx, b.ID, owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, state.Bookmarks)

	state, err = svc.ToggleBookmark(ctx, a.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, state.Bookmarked)
	assert.Equal(t, []uuid.UUID{b.ID}, state.Bookmarks)
}

func TestCommentAddThenDelete(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMaterialService(db, testLogger(), WithPublisher(pub))
	ctx := context.Background()

	owner := seedUser(t, db, "owner", models.RoleStudent)
	reader := seedUser(t, db, "reader", models.RoleStudent)
	admin := seedUser(t, db, "admin", models.RoleAdmin)
	m := seedMaterial(t, db, materialSeed{title: "discussed", approved: true, owner: owner.ID})

	comments, err := svc.AddComment(ctx, m.ID, owner.ID, "first")
	require.NoError(t, err)
	require.Len(t, comments, 1)

	comments, err = svc.AddComment(ctx, m.ID, reader.ID, "  second  ")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	second := comments[1]
	assert.Equal(t, "second", second.Text)
	assert.Equal(t, "reader", second.User.Name)

	err = svc.DeleteComment(ctx, actorOf(owner), m.ID, second.ID)
	assert.Equal(t, utils.KindForbidden, utils.KindOf(err))

	require.NoError(t, svc.DeleteComment(ctx, actorOf(reader), m.ID, second.ID))

	loaded, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.CommentCount())
	assert.Equal(t, "first", loaded.Comments[0].Text)

	err = svc.DeleteComment(ctx, actorOf(admin), m.ID, second.ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
	require.NoError(t, svc.DeleteComment(ctx, actorOf(admin), m.ID, loaded.Comments[0].ID))

	assert.Equal(t, []string{ws.EventNewComment, ws.EventNewComment, ws.EventDeleteComment, ws.EventDeleteComment}, pub.types())
}

func TestAddCommentValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db, testLogger())
	ctx := context.Background()

	owner := seedUser(t, db, "owner", models.RoleStudent)
	m := seedMaterial(t, db, materialSeed{title: "quiet", approved: true, owner: owner.ID})

	_, err := svc.AddComment(ctx, m.ID, owner.ID, "   ")
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = svc.AddComment(ctx, m.ID, owner.ID, strings.Repeat("x", 501))
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	_, err = svc.AddComment(ctx, uuid.New(), owner.ID, "hello")
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))

	other := seedMaterial(t, db, materialSeed{title: "other", approved: true, owner: owner.ID})
	comments, err := svc.AddComment(ctx, m.ID, owner.ID, "mine")
	require.NoError(t, err)
	err = svc.DeleteComment(ctx, actorOf(owner), other.ID, comments[0].ID)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}
