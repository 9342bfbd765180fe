package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/storage"
	"github.com/cppla/rsvblog/utils"
)

// StagedFile is an upload already written to the staging directory.
type StagedFile struct {
	Path           string
	OriginFileName string
}

type GenFileService struct {
	store     storage.Store
	publisher events.Publisher
	now       func() time.Time
}

func NewGenFileService(store storage.Store, publisher events.Publisher) *GenFileService {
	return &GenFileService{store: store, publisher: publisher, now: time.Now}
}

// Save records the staged file as an attachment of owner and moves it into the store
// under <owner kind>/<yyyy_MM_dd>/<uuid>.<ext>. The row is written before the move.
func (s *GenFileService) Save(uow *repository.UnitOfWork, owner models.Owner, typeCode, type2Code string, fileNo int, staged StagedFile) (*models.GenFile, error) {
	if _, err := models.ParseOwnerKind(string(owner.Kind)); err != nil || owner.ID == 0 {
		return nil, utils.Validation(CodeInvalidOwner, fmt.Sprintf("invalid attachment owner %s", owner))
	}
	info, err := os.Stat(staged.Path)
	if err != nil {
		return nil, fmt.Errorf("stat staged file: %w", err)
	}

	ext := utils.FileExt(staged.OriginFileName)
	fileName := uuid.NewString()
	if ext != "" {
		fileName += "." + ext
	}
	g := &models.GenFile{
		TypeCode:         typeCode,
		Type2Code:        type2Code,
		FileNo:           fileNo,
		FileExtTypeCode:  utils.FileExtTypeCode(ext),
		FileExtType2Code: utils.FileExtType2Code(ext),
		FileSize:         info.Size(),
		FileExt:          ext,
		FileDir:          path.Join(string(owner.Kind), s.now().Format("2006_01_02")),
		FileName:         fileName,
		OriginFileName:   staged.OriginFileName,
	}
	g.SetOwner(owner)
	if err := uow.GenFiles().Create(g); err != nil {
		return nil, fmt.Errorf("create gen file row: %w", err)
	}

	// a crash between the insert above and this move leaves a row without a file
	if err := s.store.Put(uow.Context(), staged.Path, g.Key()); err != nil {
		return nil, utils.Internal(CodeStorageFailed, "failed to store file", err)
	}
	uow.AfterCommit(func(ctx context.Context) {
		events.Emit(ctx, s.publisher, events.Event{Type: events.GenFileSaved, FileName: g.FileName})
	})
	return g, nil
}

func (s *GenFileService) FindByOwner(uow *repository.UnitOfWork, owner models.Owner) ([]models.GenFile, error) {
	return uow.GenFiles().FindByOwner(owner)
}

func (s *GenFileService) FindByFileName(uow *repository.UnitOfWork, name string) (*models.GenFile, error) {
	g, err := uow.GenFiles().FindByFileName(name)
	if isNotFound(err) {
		return nil, utils.NotFound(CodeGenFileNotFound, fmt.Sprintf("file %s not found", name))
	}
	return g, err
}

func (s *GenFileService) Open(ctx context.Context, g *models.GenFile) (io.ReadCloser, error) {
	return s.store.Open(ctx, g.Key())
}

func (s *GenFileService) URL(g *models.GenFile) string {
	return s.store.URL(g.Key())
}
