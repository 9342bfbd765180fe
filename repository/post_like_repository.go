package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/rsvblog/models"
)

type PostLikeRepository struct {
	DB *gorm.DB
}

// Create inserts the like; an existing (post, member) pair is left untouched.
func (r *PostLikeRepository) Create(postID, memberID uint) error {
	like := models.PostLike{PostID: postID, MemberID: memberID}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
}

func (r *PostLikeRepository) Delete(postID, memberID uint) error {
	return r.DB.Where("post_id = ? AND member_id = ?", postID, memberID).
		Delete(&models.PostLike{}).Error
}

func (r *PostLikeRepository) Exists(postID, memberID uint) (bool, error) {
	var cnt int64
	err := r.DB.Model(&models.PostLike{}).
		Where("post_id = ? AND member_id = ?", postID, memberID).
		Count(&cnt).Error
	return cnt > 0, err
}

// FindLikedPostIDs returns which of postIDs the member liked, in one query.
func (r *PostLikeRepository) FindLikedPostIDs(memberID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.DB.Model(&models.PostLike{}).
		Where("member_id = ? AND post_id IN ?", memberID, postIDs).
		Pluck("post_id", &ids).Error
	return ids, err
}

func (r *PostLikeRepository) CountByPost(postID uint) (int64, error) {
	var cnt int64
	err := r.DB.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&cnt).Error
	return cnt, err
}
