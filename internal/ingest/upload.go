package ingest

import (
	"bytes"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload is the capability an ingestor needs from any upload source: a
// name and a readable byte stream. Multipart form fields, in-memory
// fixtures and CLI file reads all adapt to it.
type Upload interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// BytesUpload adapts an in-memory buffer.
type BytesUpload struct {
	name string
	data []byte
}

func NewBytesUpload(name string, data []byte) BytesUpload {
	return BytesUpload{name: name, data: data}
}

func (u BytesUpload) Name() string { return u.name }

func (u BytesUpload) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(u.data)), nil
}

// FileUpload adapts a file on the local filesystem.
type FileUpload struct {
	path string
}

func NewFileUpload(path string) FileUpload { return FileUpload{path: path} }

func (u FileUpload) Name() string { return filepath.Base(u.path) }

func (u FileUpload) Open() (io.ReadCloser, error) { return os.Open(u.path) }

// MultipartUpload adapts a multipart form file.
type MultipartUpload struct {
	fh *multipart.FileHeader
}

func NewMultipartUpload(fh *multipart.FileHeader) MultipartUpload {
	return MultipartUpload{fh: fh}
}

func (u MultipartUpload) Name() string { return u.fh.Filename }

func (u MultipartUpload) Open() (io.ReadCloser, error) { return u.fh.Open() }

// readerUpload wraps an arbitrary stream under a fixed name.
type readerUpload struct {
	name string
	r    io.Reader
}

// NewReaderUpload adapts a raw reader. The reader is consumed once; a
// second Open hands out the drained stream, which fails the save's PDF
// signature check.
func NewReaderUpload(name string, r io.Reader) Upload {
	return &readerUpload{name: name, r: r}
}

func (u *readerUpload) Name() string { return u.name }

func (u *readerUpload) Open() (io.ReadCloser, error) {
	return io.NopCloser(u.r), nil
}
