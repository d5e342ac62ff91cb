package s3

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// SecureMIMETypesExtension lists the image types accepted for upload and their file extensions.
// SVG is excluded since it can carry scripts.
var SecureMIMETypesExtension = map[string]string{
	"image/jpeg": "jpeg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/bmp":  "bmp",
	"image/webp": "webp",
}

// UnsupportedImageError reports a body whose sniffed type is not an accepted image.
type UnsupportedImageError struct {
	MIMEType string
}

func (e *UnsupportedImageError) Error() string {
	return fmt.Sprintf("invalid image type: %s", e.MIMEType)
}

func CheckSecureImageAndGetExtension(mimeType string) (bool, string) {
	ext, ok := SecureMIMETypesExtension[mimeType]
	return ok, ext
}

// Image is an upload body that passed the size and type checks.
type Image struct {
	Content   []byte
	MIMEType  string
	Extension string
}

// ReadImage reads at most maxSize bytes from r and sniffs the content type.
// It returns *ReachLimitError or *UnsupportedImageError for rejected bodies.
func ReadImage(r io.Reader, maxSize int64) (*Image, error) {
	content, err := io.ReadAll(NewMaxSizeReader(r, maxSize))
	if err != nil {
		var limitErr *ReachLimitError
		if errors.As(err, &limitErr) {
			return nil, limitErr
		}
		return nil, fmt.Errorf("fail to read image, err=%w", err)
	}
	mimeType := http.DetectContentType(content)
	secure, ext := CheckSecureImageAndGetExtension(mimeType)
	if !secure {
		return nil, &UnsupportedImageError{MIMEType: mimeType}
	}
	return &Image{Content: content, MIMEType: mimeType, Extension: ext}, nil
}
