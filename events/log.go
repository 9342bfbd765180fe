package events

import (
	"context"

	"go.uber.org/zap"
)

// LogPublisher writes events to the application log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.logger.Info("event",
		zap.String("type", string(e.Type)),
		zap.Uint("postId", e.PostID),
		zap.Uint("commentId", e.CommentID),
		zap.Uint("memberId", e.MemberID),
		zap.String("fileName", e.FileName),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
