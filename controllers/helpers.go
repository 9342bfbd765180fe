package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/rsvblog/middleware"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/utils"
)

func parseID(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, utils.Validation(40010, "invalid "+name)
	}
	return uint(id), nil
}

func parseInt(s string, fallback int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return fallback
}

// loadActor returns the authenticated member, or nil for anonymous requests.
func loadActor(ctx *gin.Context, uow *repository.UnitOfWork, members *services.MemberService) (*models.Member, error) {
	id := middleware.MemberID(ctx)
	if id == 0 {
		return nil, nil
	}
	m, err := members.FindByID(uow, id)
	if err != nil {
		if utils.AsAppError(err).Kind == utils.KindNotFound {
			return nil, utils.Unauthorized(40106, "member no longer exists")
		}
		return nil, err
	}
	return m, nil
}

func requireActor(ctx *gin.Context, uow *repository.UnitOfWork, members *services.MemberService) (*models.Member, error) {
	m, err := loadActor(ctx, uow, members)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, utils.Unauthorized(40101, "login required")
	}
	return m, nil
}

type memberDto struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Name          string    `json:"name"`
	ProfileImgURL string    `json:"profileImgUrl"`
	IsAdmin       bool      `json:"isAdmin"`
	IsSocial      bool      `json:"isSocial"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newMemberDto(m *models.Member) memberDto {
	return memberDto{
		ID:            m.ID,
		Username:      m.Username,
		Name:          m.Name(),
		ProfileImgURL: m.ProfileImgURLOrDefault(),
		IsAdmin:       m.IsAdmin(),
		IsSocial:      m.IsSocial(),
		CreatedAt:     m.CreatedAt,
	}
}
