package repository

import (
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
)

type PostCommentRepository struct {
	DB *gorm.DB
}

func (r *PostCommentRepository) Create(c *models.PostComment) error {
	return r.DB.Omit("Author").Create(c).Error
}

func (r *PostCommentRepository) FindByID(id uint) (*models.PostComment, error) {
	var c models.PostComment
	if err := r.DB.Preload("Author").First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostCommentRepository) UpdateFields(c *models.PostComment, fields map[string]interface{}) error {
	return r.DB.Model(c).Omit("Author").Updates(fields).Error
}

// List returns the comments of a post with the given published flag under parentID
// (nil selects top-level comments), newest first.
func (r *PostCommentRepository) List(postID uint, published bool, parentID *uint) ([]models.PostComment, error) {
	q := r.DB.Preload("Author").Where("post_id = ? AND published = ?", postID, published)
	if parentID == nil {
		q = q.Where("parent_comment_id IS NULL")
	} else {
		q = q.Where("parent_comment_id = ?", *parentID)
	}
	var comments []models.PostComment
	err := q.Order("id DESC").Find(&comments).Error
	return comments, err
}

// FindLatestDraft returns the newest unpublished, empty comment of author on the post.
func (r *PostCommentRepository) FindLatestDraft(postID, authorID uint) (*models.PostComment, error) {
	var c models.PostComment
	err := r.DB.Preload("Author").
		Where("post_id = ? AND author_id = ? AND published = ? AND body = ?", postID, authorID, false, "").
		Order("id DESC").
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DetachReplies moves direct replies of the comment to the top level.
func (r *PostCommentRepository) DetachReplies(commentID uint) error {
	return r.DB.Model(&models.PostComment{}).
		Where("parent_comment_id = ?", commentID).
		Update("parent_comment_id", nil).Error
}

func (r *PostCommentRepository) Delete(c *models.PostComment) error {
	return r.DB.Delete(&models.PostComment{}, c.ID).Error
}
