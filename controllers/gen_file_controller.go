package controllers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/storage"
	"github.com/cppla/rsvblog/utils"
)

// GenFileController handles attachments of posts, comments and members.
type GenFileController struct {
	db         *gorm.DB
	files      *services.GenFileService
	posts      *services.PostService
	comments   *services.PostCommentService
	members    *services.MemberService
	stagingDir string
	maxBytes   int64
}

func NewGenFileController(db *gorm.DB, files *services.GenFileService, posts *services.PostService,
	comments *services.PostCommentService, members *services.MemberService, stagingDir string, maxUploadMB int) *GenFileController {
	return &GenFileController{
		db:         db,
		files:      files,
		posts:      posts,
		comments:   comments,
		members:    members,
		stagingDir: stagingDir,
		maxBytes:   int64(maxUploadMB) << 20,
	}
}

type genFileDto struct {
	ID               uint      `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	RelTypeCode      string    `json:"relTypeCode"`
	RelID            uint      `json:"relId"`
	TypeCode         string    `json:"typeCode"`
	Type2Code        string    `json:"type2Code"`
	FileNo           int       `json:"fileNo"`
	FileExtTypeCode  string    `json:"fileExtTypeCode"`
	FileExtType2Code string    `json:"fileExtType2Code"`
	FileSize         int64     `json:"fileSize"`
	FileName         string    `json:"fileName"`
	OriginFileName   string    `json:"originFileName"`
	URL              string    `json:"url"`
	DownloadURL      string    `json:"downloadUrl"`
}

func (c *GenFileController) toDto(g *models.GenFile) genFileDto {
	downloadURL := "/api/v1/gen-files/download/" + g.FileName
	url := c.files.URL(g)
	if url == "" {
		url = downloadURL
	}
	return genFileDto{
		ID:               g.ID,
		CreatedAt:        g.CreatedAt,
		RelTypeCode:      g.RelTypeCode,
		RelID:            g.RelID,
		TypeCode:         g.TypeCode,
		Type2Code:        g.Type2Code,
		FileNo:           g.FileNo,
		FileExtTypeCode:  g.FileExtTypeCode,
		FileExtType2Code: g.FileExtType2Code,
		FileSize:         g.FileSize,
		FileName:         g.FileName,
		OriginFileName:   g.OriginFileName,
		URL:              url,
		DownloadURL:      downloadURL,
	}
}

func parseOwner(ctx *gin.Context) (models.Owner, error) {
	kind, err := models.ParseOwnerKind(ctx.Param("relTypeCode"))
	if err != nil {
		return models.Owner{}, utils.Validation(services.CodeInvalidOwner, err.Error())
	}
	id, err := parseID(ctx, "relId")
	if err != nil {
		return models.Owner{}, err
	}
	return models.Owner{Kind: kind, ID: id}, nil
}

// checkOwner verifies the owner exists and the actor may read it, or edit it when write is set.
func (c *GenFileController) checkOwner(uow *repository.UnitOfWork, actor *models.Member, owner models.Owner, write bool) error {
	switch owner.Kind {
	case models.OwnerPost:
		post, err := c.posts.FindByID(uow, owner.ID)
		if err != nil {
			return err
		}
		if (write && !c.posts.CanEdit(actor, post)) || (!write && !c.posts.CanRead(actor, post)) {
			return utils.Forbidden("")
		}
	case models.OwnerPostComment:
		comment, err := c.comments.FindByID(uow, owner.ID)
		if err != nil {
			return err
		}
		if (write && !c.comments.CanEdit(actor, comment)) || (!write && !c.comments.CanRead(actor, comment)) {
			return utils.Forbidden("")
		}
	case models.OwnerMember:
		member, err := c.members.FindByID(uow, owner.ID)
		if err != nil {
			return err
		}
		if write && !member.Is(actor) {
			return utils.Forbidden("")
		}
	}
	return nil
}

// Upload stores one multipart file ("file") as an attachment of the owner in the path.
func (c *GenFileController) Upload(ctx *gin.Context) {
	owner, err := parseOwner(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Fail(ctx, utils.Validation(40030, "no file uploaded"))
		return
	}

	staged, err := storage.Stage(header, c.stagingDir, c.maxBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		utils.Fail(ctx, utils.Validation(40032, fmt.Sprintf("file size exceeds %dMB", c.maxBytes>>20)))
		return
	}
	if err != nil {
		utils.Fail(ctx, utils.Internal(50030, "failed to stage upload", err))
		return
	}
	// no-op once the store took the file
	defer os.Remove(staged)

	typeCode := ctx.DefaultPostForm("typeCode", "common")
	type2Code := ctx.DefaultPostForm("type2Code", "attachment")
	fileNo, _ := strconv.Atoi(ctx.DefaultPostForm("fileNo", "0"))

	var dto genFileDto
	err = repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := requireActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		if err := c.checkOwner(uow, actor, owner, true); err != nil {
			return err
		}
		g, err := c.files.Save(uow, owner, utils.SanitizeText(typeCode), utils.SanitizeText(type2Code), fileNo,
			services.StagedFile{Path: staged, OriginFileName: header.Filename})
		if err != nil {
			return err
		}
		dto = c.toDto(g)
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "file uploaded", utils.Item(dto))
}

func (c *GenFileController) List(ctx *gin.Context) {
	owner, err := parseOwner(ctx)
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	var items []genFileDto
	err = repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := loadActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		if err := c.checkOwner(uow, actor, owner, false); err != nil {
			return err
		}
		files, err := c.files.FindByOwner(uow, owner)
		if err != nil {
			return err
		}
		items = make([]genFileDto, 0, len(files))
		for i := range files {
			items = append(items, c.toDto(&files[i]))
		}
		return nil
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	utils.Success(ctx, utils.Items(items))
}

// Download streams the stored bytes under the original file name to actors that may read the owner.
func (c *GenFileController) Download(ctx *gin.Context) {
	var g *models.GenFile
	err := repository.Transaction(ctx.Request.Context(), c.db, func(uow *repository.UnitOfWork) error {
		actor, err := loadActor(ctx, uow, c.members)
		if err != nil {
			return err
		}
		if g, err = c.files.FindByFileName(uow, ctx.Param("fileName")); err != nil {
			return err
		}
		return c.checkOwner(uow, actor, g.Owner(), false)
	})
	if err != nil {
		utils.Fail(ctx, err)
		return
	}
	rc, err := c.files.Open(ctx.Request.Context(), g)
	if err != nil {
		utils.Fail(ctx, utils.NotFound(services.CodeGenFileNotFound, "file content missing"))
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension("." + g.FileExt)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": g.OriginFileName})
	ctx.DataFromReader(http.StatusOK, g.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}
