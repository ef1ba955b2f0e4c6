package media

import (
	"encoding/base64"
	"net/http"
)

// BuildDataURL encodes data as a base64 data URL. The MIME type is sniffed when empty.
func BuildDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
