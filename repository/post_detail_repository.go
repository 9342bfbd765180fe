package repository

import (
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
)

type PostDetailRepository struct {
	DB *gorm.DB
}

func (r *PostDetailRepository) Create(d *models.PostDetail) error {
	return r.DB.Create(d).Error
}

func (r *PostDetailRepository) FindByPostAndName(postID uint, name string) (*models.PostDetail, error) {
	var d models.PostDetail
	if err := r.DB.Where("post_id = ? AND name = ?", postID, name).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *PostDetailRepository) UpdateVal(d *models.PostDetail, val string) error {
	d.Val = val
	return r.DB.Model(d).Update("val", val).Error
}
