package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipe-site/backend/internal/storage"
	"github.com/pageza/recipe-site/backend/internal/types"
)

// PayloadField is the multipart field holding the JSON part of a submission.
const PayloadField = "payload"

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bindSubmission decodes a JSON body, or a multipart form whose "payload" field
// is JSON and whose fileField carries an optional upload.
func bindSubmission(c *gin.Context, dst interface{}, fileField string) (*types.Upload, error) {
	if !isMultipart(c) {
		if err := c.ShouldBindJSON(dst); err != nil {
			return nil, err
		}
		return nil, nil
	}

	payload := c.PostForm(PayloadField)
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), dst); err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", PayloadField, err)
		}
	}
	return formFile(c, fileField)
}

// formFile reads an uploaded file into memory. Reading stops one byte past
// storage.MaxImageSize so oversized files are still rejected by validation.
func formFile(c *gin.Context, field string) (*types.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	return &types.Upload{Filename: header.Filename, Data: data}, nil
}
