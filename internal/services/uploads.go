package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"inkwell/internal/models"
)

// MaxUploadSize bounds a single attachment.
const MaxUploadSize = 32 << 20

// ReadUploads loads submitted files into unsaved attachments. Names are reduced to
// their base name; a later upload with the same name replaces an earlier one.
func ReadUploads(headers []*multipart.FileHeader) ([]models.File, error) {
	var files []models.File
	index := map[string]int{}

	for _, header := range headers {
		name := cleanFileName(header.Filename)
		if name == "" {
			continue
		}
		if name == models.ReservedFileName {
			return nil, fmt.Errorf("%w: %s", ErrReservedName, name)
		}
		if header.Size > MaxUploadSize {
			return nil, fmt.Errorf("%s exceeds %d bytes", name, MaxUploadSize)
		}

		content, err := readUpload(header)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		f := models.File{Name: name, Content: content}
		if i, ok := index[name]; ok {
			files[i] = f
			continue
		}
		index[name] = len(files)
		files = append(files, f)
	}
	return files, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
}

func cleanFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.TrimSpace(name)
}
