package services

import (
	"fmt"
	"strings"
)

// GetExtensionFromContentType возвращает расширение для разрешённых типов изображений.
func GetExtensionFromContentType(contentType string) (string, error) {
	// "image/png; charset=..." тоже встречается
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported image content type: '%s'", contentType)
	}
}
