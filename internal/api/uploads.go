package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	errUnsupportedUpload = errors.New("only jpeg, png and pdf files are allowed")
	errUploadTooLarge    = errors.New("file exceeds the upload size limit")
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".pdf":  {},
}

var allowedMIMETypes = []string{"image/jpeg", "image/png", "application/pdf"}

// upload is a multipart file that passed the boundary checks.
type upload struct {
	name     string
	mimeType string
	file     multipart.File
}

// openUpload checks the extension, size and sniffed content type of a file
// and returns it rewound to the start. The caller closes upload.file.
func openUpload(header *multipart.FileHeader, maxBytes int64) (*upload, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return nil, fmt.Errorf("%s: %w", header.Filename, errUnsupportedUpload)
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, fmt.Errorf("%s: %w", header.Filename, errUploadTooLarge)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", header.Filename, err)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("sniff %s: %w", header.Filename, err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedMIMETypes...) {
		file.Close()
		return nil, fmt.Errorf("%s (%s): %w", header.Filename, mtype.String(), errUnsupportedUpload)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("rewind %s: %w", header.Filename, err)
	}

	return &upload{name: header.Filename, mimeType: mtype.String(), file: file}, nil
}
