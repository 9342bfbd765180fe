package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/utils"
)

// PostController serves posts and likes.
type PostController struct {
	db      *gorm.DB
	posts   *services.PostService
	members *services.MemberService
}

func NewPostController(db *gorm.DB, posts *services.PostService, members *services.MemberService) *PostController {
	return &PostController{db: db, posts: posts, members: members}
}

type postDto struct {
	ID                 uint      `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	ModifiedAt         time.Time `json:"modifiedAt"`
	AuthorID           uint      `json:"authorId"`
	AuthorName         string    `json:"authorName"`
	AuthorProfileImg   string    `json:"authorProfileImgUrl"`
	Title              string    `json:"title"`
	Body               *string   `json:"body,omitempty"`
	Published          bool      `json:"published"`
	CommentsCount      int       `json:"commentsCount"`
	ActorCanEdit       bool      `json:"actorCanEdit"`
	ActorCanDelete     bool      `json:"actorCanDelete"`
	ActorCanLike       bool      `json:"actorCanLike"`
	ActorCanCancelLike bool      `json:"actorCanCancelLike"`
}

func (p *PostController) toDto(uow *repository.UnitOfWork, actor *models.Member, post *models.Post) postDto {
	return postDto{
		ID:                 post.ID,
		CreatedAt:          post.CreatedAt,
		ModifiedAt:         post.UpdatedAt,
		AuthorID:           post.AuthorID,
		AuthorName:         post.Author.Name(),
		AuthorProfileImg:   post.Author.ProfileImgURLOrDefault(),
		Title:              post.Title,
		Published:          post.Published,
		CommentsCount:      post.CommentsCount,
		ActorCanEdit:       p.posts.CanEdit(actor, post),
		ActorCanDelete:     p.posts.CanDelete(actor, post),
		ActorCanLike:       p.posts.CanLike(uow, actor, post),
		ActorCanCancelLike: p.posts.CanCancelLike(uow, actor, post),
	}
}

type pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func newPagination(s repository.PostSearch, total int64) pagination {
	return pagination{
		Page:       s.Page,
		PageSize:   s.PageSize,
		Total:      total,
		TotalPages: int((total + int64(s.PageSize) - 1) / int64(s.PageSize)),
	}
}

func searchFromQuery(ctx *gin.Context) repository.PostSearch {
	return repository.PostSearch{
		KwType:   repository.ParseKwType(ctx.Query("kwType")),
		Kw:       strings.TrimSpace(ctx.Query("kw")),
		Page:     parseInt(ctx.Query("page"), 1),
		PageSize: parseInt(ctx.Query("pageSize"), 10),
	}.Normalize()
}

// List returns published posts matching the keyword query.
func (p *PostController) List(ctx *gin.Context) {
	search := searchFromQuery(ctx)
	published := true
	search.Published = &published
	p.list(ctx, search, false)
}

// ListMine returns the actor's own posts, drafts included.
func (p *PostController) ListMine(ctx *gin.Context) {
	p.list(ctx, searchFromQuery(ctx), true)
}

func (p *PostController) list(ctx *gin.Context, search repository.PostSearch, mine bool) {
	var items []postDto
	var total int64
	err := repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := loadActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		if mine {
			if actor == nil {
				return utils.Unauthorized(40101, "login required")
			}
			search.AuthorID = &actor.ID
		}
		posts, n, err := p.posts.Search(uow, search)
		if err != nil {
			return err
		}
		total = n
		if actor != nil {
			if _, err := p.posts.LoadLikeMap(uow, posts, actor); err != nil {
				return err
			}
		}
		items = make([]postDto, 0, len(posts))
		for i := range posts {
			items = append(items, p.toDto(uow, actor, &posts[i]))
		}
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items, "pagination": newPagination(search, total)})
}

// Get returns one post with its body.
func (p *PostController) Get(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var dto postDto
	err = repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := loadActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		post, err := p.posts.FindByID(uow, id)
		if err != nil {
			return err
		}
		if !p.posts.CanRead(actor, post) {
			return utils.Forbidden("")
		}
		body, err := p.posts.Body(uow, post)
		if err != nil {
			return err
		}
		dto = p.toDto(uow, actor, post)
		dto.Body = &body
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, utils.Item(dto))
}

type postRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

func (r postRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return utils.Validation(40001, "title is required")
	}
	if strings.TrimSpace(r.Body) == "" {
		return utils.Validation(40002, "body is required")
	}
	return nil
}

func bindPost(ctx *gin.Context) (postRequest, error) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return req, utils.Validation(40020, "invalid request payload")
	}
	return req, req.validate()
}

func (p *PostController) Write(ctx *gin.Context) {
	req, err := bindPost(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var dto postDto
	err = repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		post, err := p.posts.Write(uow, actor, req.Title, req.Body, req.Published)
		if err != nil {
			return err
		}
		dto = p.toDto(uow, actor, post)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, fmt.Sprintf("post #%d created", dto.ID), utils.Item(dto))
}

// Temp returns the actor's draft, creating one when none exists.
func (p *PostController) Temp(ctx *gin.Context) {
	var msg string
	var dto postDto
	err := repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		m, post, err := p.posts.FindTempOrMake(uow, actor)
		if err != nil {
			return err
		}
		body, err := p.posts.Body(uow, post)
		if err != nil {
			return err
		}
		msg = m
		dto = p.toDto(uow, actor, post)
		dto.Body = &body
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, msg, utils.Item(dto))
}

func (p *PostController) Edit(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var dto postDto
	err = repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		post, err := p.posts.FindByID(uow, id)
		if err != nil {
			return err
		}
		if !p.posts.CanEdit(actor, post) {
			return utils.Forbidden("")
		}
		req, err := bindPost(ctx)
		if err != nil {
			return err
		}
		if err := p.posts.Edit(uow, post, req.Title, req.Body, req.Published); err != nil {
			return err
		}
		body, err := p.posts.Body(uow, post)
		if err != nil {
			return err
		}
		dto = p.toDto(uow, actor, post)
		dto.Body = &body
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, fmt.Sprintf("post #%d updated", id), utils.Item(dto))
}

func (p *PostController) Delete(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	err = repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		post, err := p.posts.FindByID(uow, id)
		if err != nil {
			return err
		}
		if !p.posts.CanDelete(actor, post) {
			return utils.Forbidden("")
		}
		return p.posts.Delete(uow, post)
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, fmt.Sprintf("post #%d deleted", id), nil)
}

func (p *PostController) Like(ctx *gin.Context) {
	p.toggleLike(ctx, true)
}

func (p *PostController) CancelLike(ctx *gin.Context) {
	p.toggleLike(ctx, false)
}

func (p *PostController) toggleLike(ctx *gin.Context, like bool) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var dto postDto
	err = repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		post, err := p.posts.FindByID(uow, id)
		if err != nil {
			return err
		}
		if !p.posts.CanRead(actor, post) {
			return utils.Forbidden("")
		}
		if like {
			if !p.posts.CanLike(uow, actor, post) {
				return utils.Forbidden("already liked")
			}
			err = p.posts.Like(uow, actor, post)
		} else {
			if !p.posts.CanCancelLike(uow, actor, post) {
				return utils.Forbidden("not liked yet")
			}
			err = p.posts.CancelLike(uow, actor, post)
		}
		if err != nil {
			return err
		}
		dto = p.toDto(uow, actor, post)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	msg := fmt.Sprintf("liked post #%d", id)
	if !like {
		msg = fmt.Sprintf("cancelled like on post #%d", id)
	}
	utils.SuccessMsg(ctx, msg, utils.Item(dto))
}

// Likes returns the cached like count of a readable post.
func (p *PostController) Likes(ctx *gin.Context) {
	id, err := parseID(ctx, "id")
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var count int64
	err = repository.Transaction(ctx.Request.Context(), p.db, func(uow *repository.UnitOfWork) error {
		actor, err := loadActor(ctx, uow, p.members)
		if err != nil {
			return err
		}
		post, err := p.posts.FindByID(uow, id)
		if err != nil {
			return err
		}
		if !p.posts.CanRead(actor, post) {
			return utils.Forbidden("")
		}
		count, err = p.posts.LikeCount(uow, post)
		return err
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, utils.Item(gin.H{"postId": id, "count": count}))
}
