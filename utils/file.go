package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

// storable extensions end up in stored file names and URLs
var fileExtPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)

var fileExtTypeCodes = map[string]string{
	"jpeg": "img", "jpg": "img", "gif": "img", "png": "img", "webp": "img", "svg": "img", "bmp": "img",
	"mp4": "video", "avi": "video", "mov": "video", "webm": "video", "mkv": "video",
	"mp3": "audio", "wav": "audio", "ogg": "audio", "m4a": "audio",
}

// FileExt returns the lower-case extension of name without the dot, or "" when it is
// not 1 to 10 ASCII letters or digits.
func FileExt(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(name)), "."))
	if !fileExtPattern.MatchString(ext) {
		return ""
	}
	return ext
}

// FileExtTypeCode groups an extension into img, video, audio or etc.
func FileExtTypeCode(ext string) string {
	if code, ok := fileExtTypeCodes[strings.ToLower(ext)]; ok {
		return code
	}
	return "etc"
}

// FileExtType2Code is the normalized extension for known media types, etc otherwise.
func FileExtType2Code(ext string) string {
	ext = strings.ToLower(ext)
	if ext == "jpeg" {
		return "jpg"
	}
	if _, ok := fileExtTypeCodes[ext]; ok {
		return ext
	}
	return "etc"
}
