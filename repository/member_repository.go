package repository

import (
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
)

type MemberRepository struct {
	DB *gorm.DB
}

func (r *MemberRepository) Create(m *models.Member) error {
	return r.DB.Create(m).Error
}

func (r *MemberRepository) FindByID(id uint) (*models.Member, error) {
	var m models.Member
	if err := r.DB.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) FindByUsername(username string) (*models.Member, error) {
	var m models.Member
	if err := r.DB.Where("username = ?", username).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) ExistsByUsername(username string) (bool, error) {
	var cnt int64
	err := r.DB.Model(&models.Member{}).Where("username = ?", username).Count(&cnt).Error
	return cnt > 0, err
}
