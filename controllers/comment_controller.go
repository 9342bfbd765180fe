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

// CommentController serves the comments of one post.
type CommentController struct {
	db       *gorm.DB
	posts    *services.PostService
	comments *services.PostCommentService
	members  *services.MemberService
}

func NewCommentController(db *gorm.DB, posts *services.PostService, comments *services.PostCommentService, members *services.MemberService) *CommentController {
	return &CommentController{db: db, posts: posts, comments: comments, members: members}
}

type commentDto struct {
	ID              uint      `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	ModifiedAt      time.Time `json:"modifiedAt"`
	PostID          uint      `json:"postId"`
	ParentCommentID *uint     `json:"parentCommentId"`
	AuthorID        uint      `json:"authorId"`
	AuthorName      string    `json:"authorName"`
	Body            string    `json:"body"`
	Published       bool      `json:"published"`
	ActorCanEdit    bool      `json:"actorCanEdit"`
	ActorCanDelete  bool      `json:"actorCanDelete"`
}

func (c *CommentController) toDto(actor *models.Member, comment *models.PostComment) commentDto {
	return commentDto{
		ID:              comment.ID,
		CreatedAt:       comment.CreatedAt,
		ModifiedAt:      comment.UpdatedAt,
		PostID:          comment.PostID,
		ParentCommentID: comment.ParentCommentID,
		AuthorID:        comment.AuthorID,
		AuthorName:      comment.Author.Name(),
		Body:            comment.Body,
		Published:       comment.Published,
		ActorCanEdit:    c.comments.CanEdit(actor, comment),
		ActorCanDelete:  c.comments.CanDelete(actor, comment),
	}
}

// readablePost loads the post named in the path and checks the actor may read it.
func (c *CommentController) readablePost(ctx *gin.Context, uow *repository.UnitOfWork, actor *models.Member) (*models.Post, error) {
	postID, err := parseID(ctx, "id")
	if err != nil {
		return nil, err
	}
	post, err := c.posts.FindByID(uow, postID)
	if err != nil {
		return nil, err
	}
	if !c.posts.CanRead(actor, post) {
		return nil, utils.Forbidden("")
	}
	return post, nil
}

// commentOf loads the comment in the path and makes sure it belongs to post.
func (c *CommentController) commentOf(ctx *gin.Context, uow *repository.UnitOfWork, post *models.Post) (*models.PostComment, error) {
	id, err := parseID(ctx, "commentId")
	if err != nil {
		return nil, err
	}
	comment, err := c.comments.FindByID(uow, id)
	if err != nil {
		return nil, err
	}
	if comment.PostID != post.ID {
		return nil, utils.NotFound(services.CodeCommentNotFound, fmt.Sprintf("comment #%d not found", id))
	}
	return comment, nil
}

// List returns published comments; parentId selects the replies of one comment.
func (c *CommentController) List(ctx *gin.Context) {
	var parentID *uint
	if raw := ctx.Query("parentId"); raw != "" {
		v := uint(parseInt(raw, 0))
		if v == 0 {
			utils.Fail(ctx, utils.Validation(40010, "invalid parentId"))
			return
		}
		parentID = &v
	}

	var items []commentDto
	err := repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := loadActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		post, err := c.readablePost(ctx, uow, actor)
		if err != nil {
			return err
		}
		comments, err := c.comments.List(uow, post, true, parentID)
		if err != nil {
			return err
		}
		items = make([]commentDto, 0, len(comments))
		for i := range comments {
			items = append(items, c.toDto(actor, &comments[i]))
		}
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, utils.Items(items))
}

type commentRequest struct {
	Body     string `json:"body"`
	ParentID *uint  `json:"parentId"`
}

func bindComment(ctx *gin.Context) (commentRequest, error) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return req, utils.Validation(40020, "invalid request payload")
	}
	if strings.TrimSpace(req.Body) == "" {
		return req, utils.Validation(40002, "body is required")
	}
	return req, nil
}

func (c *CommentController) Write(ctx *gin.Context) {
	req, err := bindComment(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var dto commentDto
	err = repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		post, err := c.readablePost(ctx, uow, actor)
		if err != nil {
			return err
		}
		comment, err := c.comments.Write(uow, actor, post, req.Body, true, req.ParentID)
		if err != nil {
			return err
		}
		dto = c.toDto(actor, comment)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, fmt.Sprintf("comment #%d created", dto.ID), utils.Item(dto))
}

func (c *CommentController) Temp(ctx *gin.Context) {
	var msg string
	var dto commentDto
	err := repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		post, err := c.readablePost(ctx, uow, actor)
		if err != nil {
			return err
		}
		m, comment, err := c.comments.FindTempOrMake(uow, actor, post)
		if err != nil {
			return err
		}
		msg = m
		dto = c.toDto(actor, comment)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, msg, utils.Item(dto))
}

// Edit replaces the body and publishes the comment.
func (c *CommentController) Edit(ctx *gin.Context) {
	var dto commentDto
	err := repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		post, err := c.readablePost(ctx, uow, actor)
		if err != nil {
			return err
		}
		comment, err := c.commentOf(ctx, uow, post)
		if err != nil {
			return err
		}
		if !c.comments.CanEdit(actor, comment) {
			return utils.Forbidden("")
		}
		req, err := bindComment(ctx)
		if err != nil {
			return err
		}
		if err := c.comments.Edit(uow, comment, req.Body); err != nil {
			return err
		}
		dto = c.toDto(actor, comment)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, fmt.Sprintf("comment #%d updated", dto.ID), utils.Item(dto))
}

func (c *CommentController) Delete(ctx *gin.Context) {
	var id uint
	err := repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		post, err := c.readablePost(ctx, uow, actor)
		if err != nil {
			return err
		}
		comment, err := c.commentOf(ctx, uow, post)
		if err != nil {
			return err
		}
		if !c.comments.CanDelete(actor, comment) {
			return utils.Forbidden("")
		}
		id = comment.ID
		return c.comments.Delete(uow, comment)
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, fmt.Sprintf("comment #%d deleted", id), nil)
}
