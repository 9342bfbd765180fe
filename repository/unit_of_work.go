package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/rsvblog/txcache"
)

// UnitOfWork bundles the transaction handle with the cache scoped to it.
// It is handed explicitly to every service call that takes part in the transaction.
type UnitOfWork struct {
	DB    *gorm.DB
	Cache *txcache.Cache

	ctx         context.Context
	afterCommit []func(ctx context.Context)
}

// Transaction runs fn inside a database transaction with a fresh cache.
// Hooks registered through AfterCommit run once the commit succeeded; on error
// the transaction is rolled back and the hooks are dropped.
func Transaction(ctx context.Context, db *gorm.DB, fn func(uow *UnitOfWork) error) error {
	uow := &UnitOfWork{Cache: txcache.New(), ctx: ctx}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow.DB = tx
		return fn(uow)
	})
	if err != nil {
		return err
	}
	uow.Commit()
	return nil
}

// Commit fires and clears the after-commit hooks.
func (u *UnitOfWork) Commit() {
	hooks := u.afterCommit
	u.afterCommit = nil
	for _, h := range hooks {
		h(u.Context())
	}
}

// AfterCommit registers fn to run after a successful commit.
func (u *UnitOfWork) AfterCommit(fn func(ctx context.Context)) {
	u.afterCommit = append(u.afterCommit, fn)
}

func (u *UnitOfWork) Context() context.Context {
	if u.ctx == nil {
		return context.Background()
	}
	return u.ctx
}

func (u *UnitOfWork) Members() *MemberRepository           { return &MemberRepository{DB: u.DB} }
func (u *UnitOfWork) Posts() *PostRepository               { return &PostRepository{DB: u.DB} }
func (u *UnitOfWork) PostDetails() *PostDetailRepository   { return &PostDetailRepository{DB: u.DB} }
func (u *UnitOfWork) PostComments() *PostCommentRepository { return &PostCommentRepository{DB: u.DB} }
func (u *UnitOfWork) PostLikes() *PostLikeRepository       { return &PostLikeRepository{DB: u.DB} }
func (u *UnitOfWork) GenFiles() *GenFileRepository         { return &GenFileRepository{DB: u.DB} }
