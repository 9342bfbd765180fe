package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/policy"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/txcache"
	"github.com/cppla/rsvblog/utils"
)

// LikeMapKey holds the post id -> liked map for the current actor in the unit-of-work cache.
const LikeMapKey = "likeMap"

type PostService struct {
	publisher events.Publisher
	likes     *LikeCounter
}

func NewPostService(publisher events.Publisher, likes *LikeCounter) *PostService {
	return &PostService{publisher: publisher, likes: likes}
}

// Write creates a post and its body detail.
func (s *PostService) Write(uow *repository.UnitOfWork, author *models.Member, title, body string, published bool) (*models.Post, error) {
	if author == nil || author.ID == 0 {
		return nil, utils.Unauthorized(40100, "login required")
	}
	p := &models.Post{
		AuthorID:  author.ID,
		Author:    *author,
		Title:     utils.SanitizeText(title),
		Published: published,
	}
	if err := uow.Posts().Create(p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	detail := &models.PostDetail{PostID: p.ID, Name: models.BodyDetailName, Val: utils.SanitizeBody(body)}
	if err := uow.PostDetails().Create(detail); err != nil {
		return nil, fmt.Errorf("create post body: %w", err)
	}
	s.emitAfterCommit(uow, events.Event{Type: events.PostWritten, PostID: p.ID, MemberID: author.ID})
	return p, nil
}

// Edit replaces title, body and published flag in place.
func (s *PostService) Edit(uow *repository.UnitOfWork, p *models.Post, title, body string, published bool) error {
	title = utils.SanitizeText(title)
	err := uow.Posts().UpdateFields(p, map[string]interface{}{"title": title, "published": published})
	if err != nil {
		return fmt.Errorf("update post #%d: %w", p.ID, err)
	}
	p.Title = title
	p.Published = published

	if err := s.setBody(uow, p, utils.SanitizeBody(body)); err != nil {
		return err
	}
	s.emitAfterCommit(uow, events.Event{Type: events.PostEdited, PostID: p.ID, MemberID: p.AuthorID})
	return nil
}

func (s *PostService) setBody(uow *repository.UnitOfWork, p *models.Post, body string) error {
	details := uow.PostDetails()
	d, err := details.FindByPostAndName(p.ID, models.BodyDetailName)
	if isNotFound(err) {
		return details.Create(&models.PostDetail{PostID: p.ID, Name: models.BodyDetailName, Val: body})
	}
	if err != nil {
		return fmt.Errorf("load body of post #%d: %w", p.ID, err)
	}
	return details.UpdateVal(d, body)
}

// Delete removes the post with its likes, comments and details.
func (s *PostService) Delete(uow *repository.UnitOfWork, p *models.Post) error {
	if err := uow.Posts().Delete(p); err != nil {
		return fmt.Errorf("delete post #%d: %w", p.ID, err)
	}
	postID := p.ID
	uow.AfterCommit(func(ctx context.Context) {
		s.likes.Invalidate(ctx, postID)
	})
	s.emitAfterCommit(uow, events.Event{Type: events.PostDeleted, PostID: postID, MemberID: p.AuthorID})
	return nil
}

func (s *PostService) FindByID(uow *repository.UnitOfWork, id uint) (*models.Post, error) {
	p, err := uow.Posts().FindByID(id)
	if isNotFound(err) {
		return nil, utils.NotFound(CodePostNotFound, fmt.Sprintf("post #%d not found", id))
	}
	return p, err
}

func (s *PostService) FindByPublished(uow *repository.UnitOfWork, published bool) ([]models.Post, error) {
	return uow.Posts().FindByPublished(published)
}

func (s *PostService) Search(uow *repository.UnitOfWork, q repository.PostSearch) ([]models.Post, int64, error) {
	return uow.Posts().Search(q)
}

// Body returns the post body, or "" when none was written yet.
func (s *PostService) Body(uow *repository.UnitOfWork, p *models.Post) (string, error) {
	d, err := uow.PostDetails().FindByPostAndName(p.ID, models.BodyDetailName)
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Val, nil
}

// FindTempOrMake reuses the author's newest unpublished draft or creates one.
func (s *PostService) FindTempOrMake(uow *repository.UnitOfWork, author *models.Member) (string, *models.Post, error) {
	if author == nil || author.ID == 0 {
		return "", nil, utils.Unauthorized(40100, "login required")
	}
	p, err := uow.Posts().FindLatestByAuthorAndTitle(author.ID, false, models.TempPostTitle)
	if err == nil {
		return fmt.Sprintf("draft #%d loaded", p.ID), p, nil
	}
	if !isNotFound(err) {
		return "", nil, err
	}
	p, err = s.Write(uow, author, models.TempPostTitle, "", false)
	if err != nil {
		return "", nil, err
	}
	return "draft created", p, nil
}

func (s *PostService) Like(uow *repository.UnitOfWork, actor *models.Member, p *models.Post) error {
	if err := uow.PostLikes().Create(p.ID, actor.ID); err != nil {
		return fmt.Errorf("like post #%d: %w", p.ID, err)
	}
	s.markLiked(uow, p.ID, true)
	s.afterLikeChange(uow, events.Event{Type: events.PostLiked, PostID: p.ID, MemberID: actor.ID})
	return nil
}

func (s *PostService) CancelLike(uow *repository.UnitOfWork, actor *models.Member, p *models.Post) error {
	if err := uow.PostLikes().Delete(p.ID, actor.ID); err != nil {
		return fmt.Errorf("cancel like on post #%d: %w", p.ID, err)
	}
	s.markLiked(uow, p.ID, false)
	s.afterLikeChange(uow, events.Event{Type: events.PostLikeCancelled, PostID: p.ID, MemberID: actor.ID})
	return nil
}

func (s *PostService) markLiked(uow *repository.UnitOfWork, postID uint, liked bool) {
	if m, ok := txcache.Get[map[uint]bool](uow.Cache, LikeMapKey); ok {
		m[postID] = liked
	}
}

func (s *PostService) afterLikeChange(uow *repository.UnitOfWork, e events.Event) {
	uow.AfterCommit(func(ctx context.Context) {
		s.likes.Invalidate(ctx, e.PostID)
	})
	s.emitAfterCommit(uow, e)
}

// LoadLikeMap resolves in one query which of posts the member liked and caches the
// result under LikeMapKey. Every post id is present in the returned map.
func (s *PostService) LoadLikeMap(uow *repository.UnitOfWork, posts []models.Post, member *models.Member) (map[uint]bool, error) {
	likeMap := make(map[uint]bool, len(posts))
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		likeMap[p.ID] = false
		ids = append(ids, p.ID)
	}
	if member != nil && member.ID != 0 {
		liked, err := uow.PostLikes().FindLikedPostIDs(member.ID, utils.Unique(ids))
		if err != nil {
			return nil, fmt.Errorf("load like map: %w", err)
		}
		for _, id := range liked {
			likeMap[id] = true
		}
	}
	uow.Cache.Put(LikeMapKey, likeMap)
	return likeMap, nil
}

// LikeCount is the cached number of likes on p.
func (s *PostService) LikeCount(uow *repository.UnitOfWork, p *models.Post) (int64, error) {
	return s.likes.Count(uow.Context(), uow.DB, p.ID)
}

func (s *PostService) CanRead(actor *models.Member, p *models.Post) bool {
	return policy.CanReadPost(actor, p)
}

func (s *PostService) CanEdit(actor *models.Member, p *models.Post) bool {
	return policy.CanEditPost(actor, p)
}

func (s *PostService) CanDelete(actor *models.Member, p *models.Post) bool {
	return policy.CanDeletePost(actor, p)
}

func (s *PostService) CanLike(uow *repository.UnitOfWork, actor *models.Member, p *models.Post) bool {
	liked, ok := s.likedBy(uow, actor, p)
	return ok && !liked
}

func (s *PostService) CanCancelLike(uow *repository.UnitOfWork, actor *models.Member, p *models.Post) bool {
	liked, ok := s.likedBy(uow, actor, p)
	return ok && liked
}

// likedBy reports whether actor liked p. ok is false when the answer is unknown.
func (s *PostService) likedBy(uow *repository.UnitOfWork, actor *models.Member, p *models.Post) (liked, ok bool) {
	if actor == nil || actor.ID == 0 || p == nil {
		return false, false
	}
	if m, found := txcache.Get[map[uint]bool](uow.Cache, LikeMapKey); found {
		if v, present := m[p.ID]; present {
			return v, true
		}
	}
	liked, err := uow.PostLikes().Exists(p.ID, actor.ID)
	if err != nil {
		utils.Logger.Warn("like lookup failed",
			zap.Uint("postId", p.ID), zap.Uint("memberId", actor.ID), zap.Error(err))
		return false, false
	}
	return liked, true
}

func (s *PostService) emitAfterCommit(uow *repository.UnitOfWork, e events.Event) {
	uow.AfterCommit(func(ctx context.Context) {
		events.Emit(ctx, s.publisher, e)
	})
}
