package models

import "time"

// PostComment is a reply to a post, optionally threaded under another comment.
type PostComment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"index;not null" json:"post_id"`
	AuthorID        uint      `gorm:"index;not null" json:"author_id"`
	Author          Member    `gorm:"foreignKey:AuthorID" json:"author"`
	ParentCommentID *uint     `gorm:"index" json:"parent_comment_id"`
	Body            string    `gorm:"type:text" json:"body"`
	Published       bool      `gorm:"index;not null;default:false" json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *PostComment) AsOwner() Owner {
	return Owner{Kind: OwnerPostComment, ID: c.ID}
}
