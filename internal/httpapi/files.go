package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"lavanderia/backend/internal/domain"
)

var excelExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// storedFileExtensions covers the document types the shop actually trades
// in; anything else is rejected at upload.
var storedFileExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

func (a *API) handleOrderUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	path, cleanup, err := a.saveUpload(w, r, excelExtensions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer func() { _ = f.Close() }()

	summary, err := a.service.ImportOrders(r.Context(), f)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleCustomerUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	path, cleanup, err := a.saveUpload(w, r, excelExtensions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer cleanup()

	f, err := os.Open(path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer func() { _ = f.Close() }()

	summary, err := a.service.ImportCustomers(r.Context(), f)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleFiles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		files, err := a.listStoredFiles()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"files": files})
	case http.MethodPost:
		path, _, err := a.saveUpload(w, r, storedFileExtensions)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, domain.StoredFile{
			Name:       filepath.Base(path),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	prefix := "/api/files/"
	name := strings.TrimSpace(strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/"))
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("file name required"))
		return
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, errors.New("invalid file name"))
		return
	}

	path := filepath.Join(a.uploadDir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, errors.New("file not found"))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (a *API) listStoredFiles() ([]domain.StoredFile, error) {
	entries, err := os.ReadDir(a.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.StoredFile{}, nil
		}
		return nil, err
	}

	files := make([]domain.StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.StoredFile{
			Name:       entry.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	return files, nil
}

// saveUpload reads the multipart "file" field, stores it under the upload
// directory with a random prefix, and returns the stored path. The cleanup
// func removes the file; callers that keep the file may ignore it.
func (a *API) saveUpload(w http.ResponseWriter, r *http.Request, allowedExtensions map[string]bool) (string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		return "", nil, fmt.Errorf("parse upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("missing file field")
	}
	defer func() { _ = file.Close() }()

	name := sanitizeFilename(header.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return "", nil, fmt.Errorf("unsupported file type %q", ext)
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		return "", nil, err
	}

	path := filepath.Join(a.uploadDir, uuid.NewString()+"-"+name)
	dest, err := os.Create(path)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(dest, file); err != nil {
		_ = dest.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := dest.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}

	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove upload %s: %v", path, err)
		}
	}
	return path, cleanup, nil
}

func sanitizeFilename(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
