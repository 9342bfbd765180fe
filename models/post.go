package models

import "time"

const (
	// BodyDetailName is the PostDetail name that holds the post body.
	BodyDetailName = "common__body"
	// TempPostTitle marks the reusable draft created by FindTempOrMake.
	TempPostTitle = "임시글"
)

// Post represents a blog post. The body lives in a PostDetail row, never on Post.
type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	AuthorID      uint      `gorm:"index;not null" json:"author_id"`
	Author        Member    `gorm:"foreignKey:AuthorID" json:"author"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Published     bool      `gorm:"index;not null;default:false" json:"published"`
	CommentsCount int       `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PostDetail stores named text attributes of a post, unique per (post, name).
type PostDetail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_detail_name" json:"post_id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_post_detail_name" json:"name"`
	Val       string    `gorm:"type:text" json:"val"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostLike marks that a member liked a post; existence is the whole payload.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	MemberID  uint      `gorm:"primaryKey;autoIncrement:false;index" json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Post) AsOwner() Owner {
	return Owner{Kind: OwnerPost, ID: p.ID}
}

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Member{},
		&Post{},
		&PostDetail{},
		&PostComment{},
		&PostLike{},
		&GenFile{},
	}
}
