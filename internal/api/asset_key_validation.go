package api

import (
	"strings"
	"unicode/utf8"
)

const (
	avatarPrefix = "avatars/"
	logoPrefix   = "logos/"
)

// isValidAssetObjectKey 只允许由上传接口生成的对象键被签发访问链接。
func isValidAssetObjectKey(key string) bool {
	if key == "" || !utf8.ValidString(key) {
		return false
	}
	if !strings.HasPrefix(key, avatarPrefix) && !strings.HasPrefix(key, logoPrefix) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	if len(key) > 200 {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(key))
	if !(strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") || strings.HasSuffix(lower, ".webp")) {
		return false
	}
	return true
}
