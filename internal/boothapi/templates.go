package boothapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/constants"
)

// TemplateFolder returns the upload folder for a gender and category.
func TemplateFolder(gender, category string) string {
	return constants.UserTemplatesFolder + "/" + gender + "/" + category
}

// UploadTemplate uploads a user template into the given gender/category.
func (c *Client) UploadTemplate(ctx context.Context, filename string, r io.Reader, gender, category string) (*UploadResponse, error) {
	const op = "upload template"

	if r == nil || filename == "" {
		return nil, apperr.Validation(op, "please select a file to upload")
	}
	if gender == "" || category == "" {
		return nil, apperr.Validation(op, "gender and category are required")
	}

	filename = SafeFilename(filename)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if err := addFilePart(writer, "file", filename, contentType, r); err != nil {
		return nil, err
	}
	if err := writer.WriteField("folder", TemplateFolder(gender, category)); err != nil {
		return nil, fmt.Errorf("could not write folder field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart writer: %w", err)
	}

	raw, err := doMultipart(ctx, c, op, "upload", &body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return decodeJSON[UploadResponse](op, raw)
}

// DeleteTemplate deletes a user template identified by its image URL.
func (c *Client) DeleteTemplate(ctx context.Context, imageURL string) (*DeleteResponse, error) {
	const op = "delete template"

	publicID, err := PublicID(imageURL)
	if err != nil {
		return nil, apperr.Validation(op, "failed to extract public ID")
	}

	endpoint := "delete?public_id=" + url.QueryEscape(publicID)
	return doRequestJSON[DeleteResponse](ctx, c, op, http.MethodDelete, endpoint, nil)
}
