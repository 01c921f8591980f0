package handlers

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to disk.
const maxMultipartMemory = 32 << 20

// parseID validates a path parameter as a UUID before any store access.
func parseID(raw, what string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", badRequest("Invalid " + what + " id")
	}
	return id.String(), nil
}

// assetKey builds a collision-free object key under prefix, keeping the
// original file extension.
func assetKey(prefix, filename string) string {
	return prefix + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

// saveUpload streams one multipart file to object storage and returns its
// public location.
func saveUpload(ctx context.Context, storage FileStorage, prefix string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	return storage.Save(ctx, assetKey(prefix, fh.Filename), f)
}

// pageParams reads page and limit query values, clamping to the defaults.
func pageParams(pageRaw, limitRaw string) (page, limit int) {
	page, limit = 1, 10
	if v, err := strconv.Atoi(pageRaw); err == nil && v >= 1 {
		page = v
	}
	if v, err := strconv.Atoi(limitRaw); err == nil && v >= 1 {
		limit = v
	}
	return page, limit
}
