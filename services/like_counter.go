package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/utils"
)

const (
	likeCountTTL       = 10 * time.Minute
	likeCountKeyPrefix = "cache:post:likes:"
)

// LikeCounter serves per-post like counts from redis, falling back to the database.
//
// Every Invalidate bumps a per-post generation key. Count watches that key while it
// counts, so a count computed before a like committed is never written back after
// the like's invalidation.
type LikeCounter struct {
	TTL time.Duration

	// beforeStore runs between the database count and the cache write.
	beforeStore func()
}

func NewLikeCounter() *LikeCounter {
	return &LikeCounter{TTL: likeCountTTL}
}

func likeCountKey(postID uint) string {
	return fmt.Sprintf("%s%d", likeCountKeyPrefix, postID)
}

func likeGenKey(postID uint) string {
	return fmt.Sprintf("%s%d:gen", likeCountKeyPrefix, postID)
}

func (c *LikeCounter) ttl() time.Duration {
	if c != nil && c.TTL > 0 {
		return c.TTL
	}
	return likeCountTTL
}

func countLikes(ctx context.Context, db *gorm.DB, postID uint) (int64, error) {
	var cnt int64
	err := db.WithContext(ctx).Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}

func (c *LikeCounter) Count(ctx context.Context, db *gorm.DB, postID uint) (int64, error) {
	key := likeCountKey(postID)
	var cached int64
	if utils.CacheGetJSON(ctx, key, &cached) {
		return cached, nil
	}
	rc := utils.GetRedis()
	if rc == nil {
		return countLikes(ctx, db, postID)
	}

	var (
		cnt     int64
		counted bool
		dbErr   error
	)
	err := rc.Watch(ctx, func(tx *redis.Tx) error {
		if cnt, dbErr = countLikes(ctx, db, postID); dbErr != nil {
			return dbErr
		}
		counted = true
		if c != nil && c.beforeStore != nil {
			c.beforeStore()
		}
		b, err := json.Marshal(cnt)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, c.ttl())
			return nil
		})
		return err
	}, likeGenKey(postID))
	if dbErr != nil {
		return 0, dbErr
	}
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		utils.Sugar.Warnf("like count cache write failed post=%d err=%v", postID, err)
	}
	if !counted {
		return countLikes(ctx, db, postID)
	}
	return cnt, nil
}

// Invalidate drops the cached count and aborts cache writes of counts already in flight.
func (c *LikeCounter) Invalidate(ctx context.Context, postID uint) {
	rc := utils.GetRedis()
	if rc == nil {
		return
	}
	genKey := likeGenKey(postID)
	_, err := rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.ttl())
		pipe.Del(ctx, likeCountKey(postID))
		return nil
	})
	if err != nil {
		utils.Sugar.Warnf("like count invalidate failed post=%d err=%v", postID, err)
	}
}

// Reset drops every cached like count.
func (c *LikeCounter) Reset(ctx context.Context) {
	utils.InvalidateByPrefix(ctx, likeCountKeyPrefix)
}
