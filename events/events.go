// Package events publishes domain events after a unit-of-work commits.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/rsvblog/config"
)

type Type string

const (
	PostWritten       Type = "post.written"
	PostEdited        Type = "post.edited"
	PostDeleted       Type = "post.deleted"
	PostLiked         Type = "post.liked"
	PostLikeCancelled Type = "post.like_cancelled"
	CommentWritten    Type = "comment.written"
	CommentEdited     Type = "comment.edited"
	CommentDeleted    Type = "comment.deleted"
	GenFileSaved      Type = "gen_file.saved"
)

type Event struct {
	Type      Type      `json:"type"`
	PostID    uint      `json:"postId,omitempty"`
	CommentID uint      `json:"commentId,omitempty"`
	MemberID  uint      `json:"memberId,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	At        time.Time `json:"at"`
}

// Key groups events of one post on the same partition.
func (e Event) Key() string {
	if e.PostID != 0 {
		return strconv.FormatUint(uint64(e.PostID), 10)
	}
	return string(e.Type)
}

func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// New returns a kafka publisher when brokers are configured, otherwise one that only logs.
func New(c config.KafkaSection, logger *zap.Logger) Publisher {
	if len(c.Brokers) == 0 {
		return NewLogPublisher(logger)
	}
	return NewKafkaPublisher(c.Brokers, c.Topic, logger)
}

// Emit publishes e and logs a failure instead of returning it.
// Used from after-commit hooks where the request already succeeded.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	if err := p.Publish(ctx, e); err != nil {
		zap.L().Warn("publish event failed", zap.String("type", string(e.Type)), zap.Error(err))
	}
}
