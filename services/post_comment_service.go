package services

import (
	"context"
	"fmt"

	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/policy"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/utils"
)

type PostCommentService struct {
	publisher events.Publisher
}

func NewPostCommentService(publisher events.Publisher) *PostCommentService {
	return &PostCommentService{publisher: publisher}
}

// Write adds a comment, or a reply when parentID is set. A published comment
// bumps the post's comment counter.
func (s *PostCommentService) Write(uow *repository.UnitOfWork, author *models.Member, post *models.Post, body string, published bool, parentID *uint) (*models.PostComment, error) {
	if author == nil || author.ID == 0 {
		return nil, utils.Unauthorized(40100, "login required")
	}
	if parentID != nil {
		parent, err := uow.PostComments().FindByID(*parentID)
		if isNotFound(err) || (err == nil && parent.PostID != post.ID) {
			return nil, utils.Validation(CodeInvalidParent, fmt.Sprintf("comment #%d is not on post #%d", *parentID, post.ID))
		}
		if err != nil {
			return nil, err
		}
	}

	c := &models.PostComment{
		PostID:          post.ID,
		AuthorID:        author.ID,
		Author:          *author,
		ParentCommentID: parentID,
		Body:            utils.SanitizeBody(body),
		Published:       published,
	}
	if err := uow.PostComments().Create(c); err != nil {
		return nil, fmt.Errorf("create comment on post #%d: %w", post.ID, err)
	}
	if published {
		if err := s.addCount(uow, post.ID, 1); err != nil {
			return nil, err
		}
		post.CommentsCount++
	}
	s.emitAfterCommit(uow, events.Event{Type: events.CommentWritten, PostID: post.ID, CommentID: c.ID, MemberID: author.ID})
	return c, nil
}

// Edit sets the body and publishes the comment. The counter moves only on the
// first publish.
func (s *PostCommentService) Edit(uow *repository.UnitOfWork, c *models.PostComment, body string) error {
	body = utils.SanitizeBody(body)
	wasPublished := c.Published
	if err := uow.PostComments().UpdateFields(c, map[string]interface{}{"body": body, "published": true}); err != nil {
		return fmt.Errorf("update comment #%d: %w", c.ID, err)
	}
	c.Body = body
	c.Published = true
	if !wasPublished {
		if err := s.addCount(uow, c.PostID, 1); err != nil {
			return err
		}
	}
	s.emitAfterCommit(uow, events.Event{Type: events.CommentEdited, PostID: c.PostID, CommentID: c.ID, MemberID: c.AuthorID})
	return nil
}

// Delete removes the comment. Direct replies stay, detached from it.
func (s *PostCommentService) Delete(uow *repository.UnitOfWork, c *models.PostComment) error {
	if err := uow.PostComments().DetachReplies(c.ID); err != nil {
		return fmt.Errorf("detach replies of comment #%d: %w", c.ID, err)
	}
	if err := uow.PostComments().Delete(c); err != nil {
		return fmt.Errorf("delete comment #%d: %w", c.ID, err)
	}
	if c.Published {
		if err := s.addCount(uow, c.PostID, -1); err != nil {
			return err
		}
	}
	s.emitAfterCommit(uow, events.Event{Type: events.CommentDeleted, PostID: c.PostID, CommentID: c.ID, MemberID: c.AuthorID})
	return nil
}

func (s *PostCommentService) addCount(uow *repository.UnitOfWork, postID uint, delta int) error {
	if err := uow.Posts().AddCommentsCount(postID, delta); err != nil {
		return fmt.Errorf("update comment count of post #%d: %w", postID, err)
	}
	return nil
}

func (s *PostCommentService) FindByID(uow *repository.UnitOfWork, id uint) (*models.PostComment, error) {
	c, err := uow.PostComments().FindByID(id)
	if isNotFound(err) {
		return nil, utils.NotFound(CodeCommentNotFound, fmt.Sprintf("comment #%d not found", id))
	}
	return c, err
}

// List returns comments of post newest first; a nil parentID lists top-level comments.
func (s *PostCommentService) List(uow *repository.UnitOfWork, post *models.Post, published bool, parentID *uint) ([]models.PostComment, error) {
	return uow.PostComments().List(post.ID, published, parentID)
}

// FindTempOrMake reuses the author's newest empty unpublished comment on post or creates one.
func (s *PostCommentService) FindTempOrMake(uow *repository.UnitOfWork, author *models.Member, post *models.Post) (string, *models.PostComment, error) {
	if author == nil || author.ID == 0 {
		return "", nil, utils.Unauthorized(40100, "login required")
	}
	c, err := uow.PostComments().FindLatestDraft(post.ID, author.ID)
	if err == nil {
		return fmt.Sprintf("comment draft #%d loaded", c.ID), c, nil
	}
	if !isNotFound(err) {
		return "", nil, err
	}
	c, err = s.Write(uow, author, post, "", false, nil)
	if err != nil {
		return "", nil, err
	}
	return "comment draft created", c, nil
}

func (s *PostCommentService) CanRead(actor *models.Member, c *models.PostComment) bool {
	return policy.CanReadComment(actor, c)
}

func (s *PostCommentService) CanEdit(actor *models.Member, c *models.PostComment) bool {
	return policy.CanEditComment(actor, c)
}

func (s *PostCommentService) CanDelete(actor *models.Member, c *models.PostComment) bool {
	return policy.CanDeleteComment(actor, c)
}

func (s *PostCommentService) emitAfterCommit(uow *repository.UnitOfWork, e events.Event) {
	uow.AfterCommit(func(ctx context.Context) {
		events.Emit(ctx, s.publisher, e)
	})
}
