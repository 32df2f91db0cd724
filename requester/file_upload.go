package requester

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// DefaultContentType is used when a file's content type cannot be inferred.
const DefaultContentType = "application/octet-stream"

// FileUpload is one file of a multipart body.
type FileUpload struct {
	Filename    string `json:"filename"`
	Content     []byte `json:"-"`
	ContentType string `json:"-"`
}

// ContentTypeDetector infers a content type for a file.
type ContentTypeDetector interface {
	Detect(filename string, content []byte) string
}

// ExtensionDetector infers the content type from the file extension only.
type ExtensionDetector struct{}

// Detect implements ContentTypeDetector.
func (ExtensionDetector) Detect(filename string, _ []byte) string {
	return ContentTypeFor(filename)
}

// SniffingDetector uses the extension when it is known and falls back to
// sniffing the content.
type SniffingDetector struct{}

// Detect implements ContentTypeDetector.
func (SniffingDetector) Detect(filename string, content []byte) string {
	if ct, ok := contentTypeByExtension(filename); ok {
		return ct
	}
	if len(content) == 0 {
		return DefaultContentType
	}
	return mimetype.Detect(content).String()
}

// ContentTypeFor infers a content type from the filename extension, falling
// back to application/octet-stream.
func ContentTypeFor(filename string) string {
	if ct, ok := contentTypeByExtension(filename); ok {
		return ct
	}
	return DefaultContentType
}

func contentTypeByExtension(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "", false
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return "", false
	}
	// drop parameters such as "; charset=utf-8"
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", false
	}
	return mediaType, true
}

type uploadOptions struct {
	fs          afero.Fs
	detector    ContentTypeDetector
	contentType string
}

// FileOption configures FromPath.
type FileOption func(*uploadOptions)

// WithFs reads files from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) FileOption {
	return func(o *uploadOptions) {
		o.fs = fs
	}
}

// WithDetector sets how a missing content type is inferred.
func WithDetector(d ContentTypeDetector) FileOption {
	return func(o *uploadOptions) {
		o.detector = d
	}
}

// WithContentType declares the content type instead of inferring it.
func WithContentType(contentType string) FileOption {
	return func(o *uploadOptions) {
		o.contentType = contentType
	}
}

// FromPath reads a file and infers its content type. Read failures are
// returned as a KindIO error.
func FromPath(path string, opts ...FileOption) (*FileUpload, error) {
	o := uploadOptions{
		fs:       afero.NewOsFs(),
		detector: ExtensionDetector{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	content, err := afero.ReadFile(o.fs, path)
	if err != nil {
		return nil, wrapIOError(err)
	}

	filename := filepath.Base(path)
	if filename == "." || filename == string(filepath.Separator) {
		filename = "file"
	}

	contentType := o.contentType
	if contentType == "" {
		contentType = o.detector.Detect(filename, content)
	}
	return &FileUpload{
		Filename:    filename,
		Content:     content,
		ContentType: contentType,
	}, nil
}

// FromBytes creates a file upload from memory. An empty contentType is
// inferred from the filename.
func FromBytes(filename string, content []byte, contentType string) *FileUpload {
	if contentType == "" {
		contentType = ContentTypeFor(filename)
	}
	return &FileUpload{
		Filename:    filename,
		Content:     content,
		ContentType: contentType,
	}
}
