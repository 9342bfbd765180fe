package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/testutil"
	"github.com/cppla/rsvblog/utils"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	utils.UseRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { utils.UseRedis(nil) })
	return mr
}

func TestLikeCountIgnoresCountsRacingAnInvalidate(t *testing.T) {
	mr := useMiniredis(t)
	db := testutil.NewDB(t)
	fan := testutil.CreateMember(t, db, "user2")
	post := &models.Post{AuthorID: testutil.CreateMember(t, db, "user1").ID, Title: "t", Published: true}
	require.NoError(t, db.Create(post).Error)

	ctx := context.Background()
	lc := NewLikeCounter()
	lc.beforeStore = func() {
		// a like commits and invalidates after the count above was taken
		require.NoError(t, db.Create(&models.PostLike{PostID: post.ID, MemberID: fan.ID}).Error)
		lc.Invalidate(ctx, post.ID)
	}

	n, err := lc.Count(ctx, db, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
	assert.False(t, mr.Exists(likeCountKey(post.ID)), "stale count must not be cached")

	lc.beforeStore = nil
	n, err = lc.Count(ctx, db, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.True(t, mr.Exists(likeCountKey(post.ID)))

	n, err = lc.Count(ctx, db, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestLikeCountWithoutRedis(t *testing.T) {
	utils.UseRedis(nil)
	db := testutil.NewDB(t)
	fan := testutil.CreateMember(t, db, "user2")
	post := &models.Post{AuthorID: fan.ID, Title: "t"}
	require.NoError(t, db.Create(post).Error)
	require.NoError(t, db.Create(&models.PostLike{PostID: post.ID, MemberID: fan.ID}).Error)

	lc := NewLikeCounter()
	n, err := lc.Count(context.Background(), db, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	lc.Invalidate(context.Background(), post.ID)
}

func TestLikeCounterReset(t *testing.T) {
	mr := useMiniredis(t)
	require.NoError(t, mr.Set(likeCountKey(1), "3"))
	require.NoError(t, mr.Set(likeCountKey(2), "5"))
	require.NoError(t, mr.Set(likeGenKey(2), "1"))
	require.NoError(t, mr.Set("jwt:blacklist:x", "1"))

	NewLikeCounter().Reset(context.Background())

	assert.False(t, mr.Exists(likeCountKey(1)))
	assert.False(t, mr.Exists(likeCountKey(2)))
	assert.False(t, mr.Exists(likeGenKey(2)))
	assert.True(t, mr.Exists("jwt:blacklist:x"))
}
