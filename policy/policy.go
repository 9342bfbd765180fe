// Package policy decides what an actor may do with posts and comments.
//
// Every function is total: a nil actor or nil target yields false.
// Admins may read and delete anything but edit only what they wrote.
package policy

import "github.com/cppla/rsvblog/models"

func CanReadPost(actor *models.Member, post *models.Post) bool {
	if post == nil {
		return false
	}
	return canRead(actor, post.Published, post.AuthorID)
}

func CanEditPost(actor *models.Member, post *models.Post) bool {
	if post == nil {
		return false
	}
	return isAuthor(actor, post.AuthorID)
}

func CanDeletePost(actor *models.Member, post *models.Post) bool {
	if post == nil {
		return false
	}
	return canDelete(actor, post.AuthorID)
}

func CanReadComment(actor *models.Member, comment *models.PostComment) bool {
	if comment == nil {
		return false
	}
	return canRead(actor, comment.Published, comment.AuthorID)
}

func CanEditComment(actor *models.Member, comment *models.PostComment) bool {
	if comment == nil {
		return false
	}
	return isAuthor(actor, comment.AuthorID)
}

func CanDeleteComment(actor *models.Member, comment *models.PostComment) bool {
	if comment == nil {
		return false
	}
	return canDelete(actor, comment.AuthorID)
}

func canRead(actor *models.Member, published bool, authorID uint) bool {
	if published {
		return true
	}
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return isAuthor(actor, authorID)
}

func canDelete(actor *models.Member, authorID uint) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return isAuthor(actor, authorID)
}

func isAuthor(actor *models.Member, authorID uint) bool {
	return actor != nil && actor.ID != 0 && actor.ID == authorID
}
