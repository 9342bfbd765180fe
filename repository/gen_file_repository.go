package repository

import (
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
)

type GenFileRepository struct {
	DB *gorm.DB
}

func (r *GenFileRepository) Create(g *models.GenFile) error {
	return r.DB.Create(g).Error
}

func (r *GenFileRepository) FindByOwner(o models.Owner) ([]models.GenFile, error) {
	var files []models.GenFile
	err := r.DB.Where("rel_type_code = ? AND rel_id = ?", string(o.Kind), o.ID).
		Order("type_code, type2_code, file_no").
		Find(&files).Error
	return files, err
}

func (r *GenFileRepository) FindByFileName(name string) (*models.GenFile, error) {
	var g models.GenFile
	if err := r.DB.Where("file_name = ?", name).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}
