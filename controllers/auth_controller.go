package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/middleware"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/utils"
)

// AuthController handles member registration and token sessions.
type AuthController struct {
	db      *gorm.DB
	members *services.MemberService
}

func NewAuthController(db *gorm.DB, members *services.MemberService) *AuthController {
	return &AuthController{db: db, members: members}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
	Nickname string `json:"nickname" binding:"max=64"`
}

// Join registers a member and logs them in.
func (a *AuthController) Join(ctx *gin.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var member *models.Member
	var token string
	err := repository.Transaction(ctx.Request.Context(), a.db, func(uow *repository.UnitOfWork) error {
		var err error
		if member, err = a.members.Join(uow, req.Username, req.Password, req.Nickname); err != nil {
			return err
		}
		member, token, err = a.members.Login(uow, req.Username, req.Password)
		return err
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.SuccessMsg(ctx, "welcome, "+member.Name(), gin.H{"item": newMemberDto(member), "token": token})
}

func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var member *models.Member
	var token string
	err := repository.Transaction(ctx.Request.Context(), a.db, func(uow *repository.UnitOfWork) error {
		var err error
		member, token, err = a.members.Login(uow, req.Username, req.Password)
		return err
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"item": newMemberDto(member), "token": token})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := time.Now().Add(utils.TokenTTL())
	if claims, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if c, ok := claims.(*utils.Claims); ok && c.ExpiresAt != nil {
			expiresAt = c.ExpiresAt.Time
		}
	}
	utils.BlacklistToken(ctx.Request.Context(), token, expiresAt)
	utils.SuccessMsg(ctx, "logged out", nil)
}

func (a *AuthController) Me(ctx *gin.Context) {
	var member *models.Member
	err := repository.Transaction(ctx.Request.Context(), a.db, func(uow *repository.UnitOfWork) error {
		var err error
		member, err = requireActor(ctx, uow, a.members)
		return err
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, utils.Item(newMemberDto(member)))
}
