package preview

import (
	"encoding/base64"
	"fmt"
	"html"
	"strings"
)

// Result of rendering one payload for inline display. When IsDownload is
// true the format has no inline preview and the caller must serve the raw
// bytes instead; HTML is empty in that case.
type Result struct {
	HTML       string
	IsDownload bool
}

var imageMimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

var textExtensions = map[string]struct{}{
	"txt": {},
	"log": {},
	"csv": {},
	"md":  {},
}

// Render decides whether a payload can be previewed inline and produces the
// markup when it can. Pure: the same (extension, bytes) pair always yields
// the same result. Unknown extensions fall back to raw download.
func Render(fileExtension string, data []byte) Result {
	ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileExtension), "."))

	if mime, ok := imageMimeTypes[ext]; ok {
		encoded := base64.StdEncoding.EncodeToString(data)
		return Result{
			HTML: fmt.Sprintf(`<img src="data:%s;base64,%s" alt="attachment preview" />`, mime, encoded),
		}
	}

	if ext == "pdf" {
		encoded := base64.StdEncoding.EncodeToString(data)
		return Result{
			HTML: fmt.Sprintf(`<embed type="application/pdf" src="data:application/pdf;base64,%s" width="100%%" height="100%%" />`, encoded),
		}
	}

	if _, ok := textExtensions[ext]; ok {
		return Result{
			HTML: "<pre>" + html.EscapeString(string(data)) + "</pre>",
		}
	}

	return Result{IsDownload: true}
}
