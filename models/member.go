package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// DefaultProfileImgURL is served when a member has no profile image.
	DefaultProfileImgURL = "https://placehold.co/640x640?text=O_O"
	socialUsernamePrefix = "KAKAO__"
)

// AdminUsernames is the fixed allow-list of privileged usernames.
var AdminUsernames = []string{"system", "admin"}

// Member represents a registered account. Passwords are stored as bcrypt hashes only.
type Member struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	Username      string            `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Password      string            `gorm:"size:255" json:"-"`
	Nickname      string            `gorm:"size:64" json:"nickname"`
	ProfileImgURL string            `gorm:"size:512" json:"profile_img_url"`
	Extra         datatypes.JSONMap `json:"extra,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// admin is unset until SetAdmin pins it.
	admin *bool
}

// IsAdmin reports the pinned admin flag, or membership of AdminUsernames when nothing was pinned.
// It never writes to the member.
func (m *Member) IsAdmin() bool {
	if m == nil {
		return false
	}
	if m.admin != nil {
		return *m.admin
	}
	for _, u := range AdminUsernames {
		if m.Username == u {
			return true
		}
	}
	return false
}

// IsReservedUsername reports whether name matches a privileged username, ignoring case.
func IsReservedUsername(name string) bool {
	for _, u := range AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(name), u) {
			return true
		}
	}
	return false
}

// SetAdmin pins the admin flag; later IsAdmin calls return v.
func (m *Member) SetAdmin(v bool) {
	m.admin = &v
}

// IsSocial reports whether the account was created through a social login.
func (m *Member) IsSocial() bool {
	return strings.HasPrefix(m.Username, socialUsernamePrefix)
}

// Name is the display name.
func (m *Member) Name() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.Username
}

func (m *Member) ProfileImgURLOrDefault() string {
	if m.ProfileImgURL == "" {
		return DefaultProfileImgURL
	}
	return m.ProfileImgURL
}

// Is reports whether m and other are the same persisted member.
func (m *Member) Is(other *Member) bool {
	if m == nil || other == nil || m.ID == 0 {
		return false
	}
	return m.ID == other.ID
}

// AsOwner returns the attachment owner value for this member.
func (m *Member) AsOwner() Owner {
	return Owner{Kind: OwnerMember, ID: m.ID}
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (m *Member) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return nil
}
