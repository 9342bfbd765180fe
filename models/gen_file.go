package models

import (
	"fmt"
	"path"
	"time"
)

// OwnerKind tags which entity a GenFile belongs to.
type OwnerKind string

const (
	OwnerPost        OwnerKind = "post"
	OwnerPostComment OwnerKind = "postComment"
	OwnerMember      OwnerKind = "member"
)

// Owner identifies the entity that owns an attachment.
type Owner struct {
	Kind OwnerKind
	ID   uint
}

// ParseOwnerKind validates a relation type code.
func ParseOwnerKind(code string) (OwnerKind, error) {
	switch k := OwnerKind(code); k {
	case OwnerPost, OwnerPostComment, OwnerMember:
		return k, nil
	}
	return "", fmt.Errorf("unknown owner kind %q", code)
}

func (o Owner) String() string {
	return fmt.Sprintf("%s#%d", o.Kind, o.ID)
}

// GenFile records an attachment stored at FileDir/FileName.
type GenFile struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	RelTypeCode      string    `gorm:"size:32;not null;index:idx_gen_file_rel" json:"rel_type_code"`
	RelID            uint      `gorm:"not null;index:idx_gen_file_rel" json:"rel_id"`
	TypeCode         string    `gorm:"size:32" json:"type_code"`
	Type2Code        string    `gorm:"size:32" json:"type2_code"`
	FileNo           int       `json:"file_no"`
	FileExtTypeCode  string    `gorm:"size:16" json:"file_ext_type_code"`
	FileExtType2Code string    `gorm:"size:16" json:"file_ext_type2_code"`
	FileSize         int64     `json:"file_size"`
	FileExt          string    `gorm:"size:16" json:"file_ext"`
	FileDir          string    `gorm:"size:255" json:"file_dir"`
	FileName         string    `gorm:"size:64;not null;uniqueIndex" json:"file_name"`
	OriginFileName   string    `gorm:"size:255" json:"origin_file_name"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Owner returns the typed owner the relation columns persist.
func (g *GenFile) Owner() Owner {
	return Owner{Kind: OwnerKind(g.RelTypeCode), ID: g.RelID}
}

// SetOwner writes o into the relation columns.
func (g *GenFile) SetOwner(o Owner) {
	g.RelTypeCode = string(o.Kind)
	g.RelID = o.ID
}

// Key is the storage key, relative to the storage root.
func (g *GenFile) Key() string {
	return path.Join(g.FileDir, g.FileName)
}
