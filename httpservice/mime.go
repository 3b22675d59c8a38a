package httpservice

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	contentTypeOctetStream = "application/octet-stream"
	contentTypeJSON        = "application/json"
	contentTypeForm        = "application/x-www-form-urlencoded"
	contentTypeText        = "text/plain; charset=utf-8"
)

// extensionTypes pins the content type of common upload extensions so the
// result does not depend on the host's mime database.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".csv":  "text/csv",
	".htm":  "text/html",
	".html": "text/html",
	".xml":  "application/xml",
	".json": "application/json",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".gz":   "application/gzip",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
}

// fileContentType resolves the content type of a multipart file part:
// the extension table first, then the mime database, then content sniffing.
func fileContentType(fileName string, content []byte) string {
	ext := strings.ToLower(filepath.Ext(fileName))

	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}

	if ext != "" {
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}

	if len(content) > 0 {
		return mimetype.Detect(content).String()
	}

	return contentTypeOctetStream
}
