package media

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"

	"buzznest/model"
)

// Uploader stores an uploaded file and returns the public URL it is served at.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string, kind models.MediaKind) (string, error)
}

// sniffLen is how many leading bytes http.DetectContentType inspects.
const sniffLen = 512

// Classify decides whether an upload is a video or an image. The declared
// content type wins; when it is missing or generic the leading bytes are
// sniffed. Anything that is not video/* is treated as an image.
func Classify(contentType string, head []byte) models.MediaKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		if len(head) > sniffLen {
			head = head[:sniffLen]
		}
		ct = http.DetectContentType(head)
	}
	if strings.HasPrefix(ct, "video/") {
		return models.MediaVideo
	}
	return models.MediaImage
}

// Sniff reads up to the sniffing window from r and returns those bytes with a
// reader that replays them followed by the rest of r.
func Sniff(r io.Reader) ([]byte, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, nil, err
	}
	head = head[:n]
	return head, io.MultiReader(bytes.NewReader(head), r), nil
}
