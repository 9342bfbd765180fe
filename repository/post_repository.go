package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/rsvblog/models"
)

// KwType selects which fields a keyword search looks at.
type KwType string

const (
	KwTypeTitle KwType = "title"
	KwTypeBody  KwType = "body"
	KwTypeAll   KwType = "all"
)

// ParseKwType falls back to KwTypeAll for unknown input.
func ParseKwType(s string) KwType {
	switch k := KwType(s); k {
	case KwTypeTitle, KwTypeBody:
		return k
	}
	return KwTypeAll
}

// PostSearch describes a paged keyword search. Nil filters are not applied.
type PostSearch struct {
	KwType    KwType
	Kw        string
	AuthorID  *uint
	Published *bool
	Page      int
	PageSize  int
}

// Normalize clamps paging to page >= 1 and 1 <= pageSize <= 100.
func (s PostSearch) Normalize() PostSearch {
	if s.Page < 1 {
		s.Page = 1
	}
	if s.PageSize <= 0 {
		s.PageSize = 10
	}
	if s.PageSize > 100 {
		s.PageSize = 100
	}
	if s.KwType == "" {
		s.KwType = KwTypeAll
	}
	return s
}

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) Create(p *models.Post) error {
	return r.DB.Omit("Author").Create(p).Error
}

func (r *PostRepository) UpdateFields(p *models.Post, fields map[string]interface{}) error {
	return r.DB.Model(p).Omit("Author").Updates(fields).Error
}

func (r *PostRepository) FindByID(id uint) (*models.Post, error) {
	var p models.Post
	if err := r.DB.Preload("Author").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepository) FindByPublished(published bool) ([]models.Post, error) {
	var posts []models.Post
	err := r.DB.Preload("Author").
		Where("published = ?", published).
		Order("id DESC").
		Find(&posts).Error
	return posts, err
}

// FindLatestByAuthorAndTitle returns the newest post of author with the given published flag and title.
func (r *PostRepository) FindLatestByAuthorAndTitle(authorID uint, published bool, title string) (*models.Post, error) {
	var p models.Post
	err := r.DB.Preload("Author").
		Where("author_id = ? AND published = ? AND title = ?", authorID, published, title).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// '!' rather than a backslash, which MySQL would read as a string escape
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// escapeLike makes kw match literally inside a LIKE pattern using ESCAPE '!'.
func escapeLike(kw string) string {
	return likeEscaper.Replace(kw)
}

// Search returns one page of posts matching s together with the total match count.
func (r *PostRepository) Search(s PostSearch) ([]models.Post, int64, error) {
	s = s.Normalize()
	scoped := func() *gorm.DB {
		q := r.DB.Model(&models.Post{})
		if s.AuthorID != nil {
			q = q.Where("posts.author_id = ?", *s.AuthorID)
		}
		if s.Published != nil {
			q = q.Where("posts.published = ?", *s.Published)
		}
		if s.Kw == "" {
			return q
		}
		like := "%" + escapeLike(s.Kw) + "%"
		bodyMatch := r.DB.Model(&models.PostDetail{}).
			Select("1").
			Where("post_details.post_id = posts.id AND post_details.name = ? AND post_details.val LIKE ? ESCAPE '!'", models.BodyDetailName, like)
		switch s.KwType {
		case KwTypeTitle:
			q = q.Where("posts.title LIKE ? ESCAPE '!'", like)
		case KwTypeBody:
			q = q.Where("EXISTS (?)", bodyMatch)
		default:
			q = q.Where(r.DB.Where("posts.title LIKE ? ESCAPE '!'", like).Or("EXISTS (?)", bodyMatch))
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []models.Post
	err := scoped().Preload("Author").
		Order("posts.id DESC").
		Offset((s.Page - 1) * s.PageSize).
		Limit(s.PageSize).
		Find(&posts).Error
	return posts, total, err
}

// AddCommentsCount shifts the denormalized comment counter by delta, never below zero.
func (r *PostRepository) AddCommentsCount(postID uint, delta int) error {
	expr := gorm.Expr("comments_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN comments_count + ? < 0 THEN 0 ELSE comments_count + ? END", delta, delta)
	}
	return r.DB.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("comments_count", expr).Error
}

// Delete removes the post together with the rows it owns.
func (r *PostRepository) Delete(p *models.Post) error {
	if err := r.DB.Where("post_id = ?", p.ID).Delete(&models.PostLike{}).Error; err != nil {
		return err
	}
	if err := r.DB.Where("post_id = ?", p.ID).Delete(&models.PostComment{}).Error; err != nil {
		return err
	}
	if err := r.DB.Where("post_id = ?", p.ID).Delete(&models.PostDetail{}).Error; err != nil {
		return err
	}
	return r.DB.Delete(&models.Post{}, p.ID).Error
}
