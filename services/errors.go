package services

import (
	"errors"

	"gorm.io/gorm"
)

// Error codes shared by the services and surfaced in the response envelope.
const (
	CodePostNotFound    = 40401
	CodeCommentNotFound = 40402
	CodeMemberNotFound  = 40403
	CodeGenFileNotFound = 40404

	CodeInvalidMember  = 40003
	CodeReservedName   = 40004
	CodeInvalidParent  = 40005
	CodeInvalidOwner   = 40006
	CodeBadCredentials = 40101
	CodeUsernameTaken  = 40901

	CodeStorageFailed = 50001
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicateKey needs TranslateError on the gorm handle.
func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
