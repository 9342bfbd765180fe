package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberIsAdminFromAllowList(t *testing.T) {
	cases := map[string]bool{
		"system": true,
		"admin":  true,
		"Admin":  false,
		"user1":  false,
		"":       false,
	}
	for username, want := range cases {
		m := &Member{Username: username}
		assert.Equal(t, want, m.IsAdmin(), username)
	}
}

func TestMemberSetAdminPinsValue(t *testing.T) {
	m := &Member{Username: "admin"}
	m.SetAdmin(false)
	assert.False(t, m.IsAdmin())

	// renaming does not trigger a recomputation once pinned
	m.Username = "system"
	assert.False(t, m.IsAdmin())

	u := &Member{Username: "user1"}
	u.SetAdmin(true)
	assert.True(t, u.IsAdmin())
}

func TestMemberNilIsNotAdmin(t *testing.T) {
	var m *Member
	assert.False(t, m.IsAdmin())
}

func TestMemberDisplayHelpers(t *testing.T) {
	m := &Member{Username: "KAKAO__1234"}
	assert.True(t, m.IsSocial())
	assert.Equal(t, "KAKAO__1234", m.Name())
	assert.Equal(t, DefaultProfileImgURL, m.ProfileImgURLOrDefault())

	m.Nickname = "kim"
	m.ProfileImgURL = "https://example.com/a.png"
	assert.Equal(t, "kim", m.Name())
	assert.Equal(t, "https://example.com/a.png", m.ProfileImgURLOrDefault())
	assert.False(t, (&Member{Username: "user1"}).IsSocial())
}

func TestMemberIs(t *testing.T) {
	a := &Member{ID: 1}
	assert.True(t, a.Is(&Member{ID: 1}))
	assert.False(t, a.Is(&Member{ID: 2}))
	assert.False(t, a.Is(nil))
	assert.False(t, (&Member{}).Is(&Member{}))
}

func TestOwnerRoundTripThroughGenFile(t *testing.T) {
	post := &Post{ID: 7}
	var g GenFile
	g.SetOwner(post.AsOwner())

	assert.Equal(t, "post", g.RelTypeCode)
	assert.Equal(t, uint(7), g.RelID)
	assert.Equal(t, Owner{Kind: OwnerPost, ID: 7}, g.Owner())
	assert.Equal(t, "post#7", g.Owner().String())

	g.FileDir = "post/2024_01_02"
	g.FileName = "abc.png"
	assert.Equal(t, "post/2024_01_02/abc.png", g.Key())
}

func TestParseOwnerKind(t *testing.T) {
	for _, code := range []string{"post", "postComment", "member"} {
		k, err := ParseOwnerKind(code)
		require.NoError(t, err)
		assert.Equal(t, OwnerKind(code), k)
	}
	_, err := ParseOwnerKind("users")
	assert.Error(t, err)
}
