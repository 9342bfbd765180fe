package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/rsvblog/config"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/testutil"
	"github.com/cppla/rsvblog/utils"
)

func TestJoinAndLogin(t *testing.T) {
	config.Set(config.AppConfig{App: config.AppSection{JWTSecret: "test-secret", TokenTTLHours: 1}})

	db := testutil.NewDB(t)
	svc := NewMemberService()

	inTx(t, db, func(uow *repository.UnitOfWork) {
		m, err := svc.Join(uow, "  alice ", "pw1234", "<b>Alice</b>")
		require.NoError(t, err)
		assert.Equal(t, "alice", m.Username)
		assert.Equal(t, "Alice", m.Nickname)
		assert.NotEqual(t, "pw1234", m.Password)
	})

	err := repository.Transaction(context.Background(), db, func(uow *repository.UnitOfWork) error {
		_, err := svc.Join(uow, "alice", "other", "")
		return err
	})
	assert.ErrorIs(t, err, utils.ErrConflict)

	err = repository.Transaction(context.Background(), db, func(uow *repository.UnitOfWork) error {
		_, err := svc.Join(uow, " ", "pw", "")
		return err
	})
	assert.ErrorIs(t, err, utils.ErrValidation)

	inTx(t, db, func(uow *repository.UnitOfWork) {
		m, token, err := svc.Login(uow, "alice", "pw1234")
		require.NoError(t, err)
		claims, err := utils.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, m.ID, claims.MemberID)

		_, _, err = svc.Login(uow, "alice", "wrong")
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
		_, _, err = svc.Login(uow, "nobody", "pw1234")
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
	})
}

func TestMemberLookups(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.CreateMember(t, db, "admin")
	svc := NewMemberService()

	inTx(t, db, func(uow *repository.UnitOfWork) {
		m, err := svc.FindByID(uow, admin.ID)
		require.NoError(t, err)
		assert.True(t, m.IsAdmin())

		m, err = svc.FindByUsername(uow, "admin")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, m.ID)

		_, err = svc.FindByID(uow, 404)
		assert.ErrorIs(t, err, utils.ErrNotFound)
		_, err = svc.FindByUsername(uow, "ghost")
		assert.ErrorIs(t, err, utils.ErrNotFound)
	})
}

func TestJoinRejectsPrivilegedNames(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewMemberService()

	for _, name := range []string{"admin", "system", " Admin ", "SYSTEM"} {
		err := repository.Transaction(context.Background(), db, func(uow *repository.UnitOfWork) error {
			_, err := svc.Join(uow, name, "pw1234", "")
			return err
		})
		require.ErrorIs(t, err, utils.ErrValidation, name)
		assert.Equal(t, CodeReservedName, utils.AsAppError(err).Code)
	}

	var cnt int64
	require.NoError(t, db.Model(&models.Member{}).Count(&cnt).Error)
	assert.Zero(t, cnt)
}

func TestJoinDuplicateIsConflictFromUniqueIndex(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateMember(t, db, "bob")
	svc := NewMemberService()

	err := repository.Transaction(context.Background(), db, func(uow *repository.UnitOfWork) error {
		_, err := svc.Join(uow, "bob", "pw1234", "")
		return err
	})
	require.ErrorIs(t, err, utils.ErrConflict)
	assert.Equal(t, CodeUsernameTaken, utils.AsAppError(err).Code)
}

func TestEnsureAdmins(t *testing.T) {
	config.Set(config.AppConfig{App: config.AppSection{JWTSecret: "test-secret", TokenTTLHours: 1}})
	db := testutil.NewDB(t)
	testutil.CreateMember(t, db, "system")
	svc := NewMemberService()

	inTx(t, db, func(uow *repository.UnitOfWork) {
		n, err := svc.EnsureAdmins(uow, "root-pass")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		m, _, err := svc.Login(uow, "admin", "root-pass")
		require.NoError(t, err)
		assert.True(t, m.IsAdmin())

		n, err = svc.EnsureAdmins(uow, "root-pass")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	other := testutil.NewDB(t)
	inTx(t, other, func(uow *repository.UnitOfWork) {
		n, err := svc.EnsureAdmins(uow, "")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, _, err = svc.Login(uow, "admin", "")
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
	})
}
