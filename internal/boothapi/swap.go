package boothapi

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/kozaktomas/photo-booth/internal/apperr"
)

// Swap model names.
const (
	ModelInswapper = "inswapper"
	ModelHeadswap  = "headswap"
)

// swapEndpoint returns the API path serving the given swap model.
func swapEndpoint(model string) (string, error) {
	switch model {
	case ModelInswapper:
		return "api/swap-face-qr/", nil
	case ModelHeadswap:
		return "api/headswap-qr", nil
	default:
		return "", fmt.Errorf("unknown swap model %q", model)
	}
}

// Swap downloads the template image, submits it together with the captured
// photo and returns the result image URL and QR code. A 200 response that
// lacks either artifact is a MissingArtifact error.
func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	const op = "swap"

	if c.token == "" {
		return nil, apperr.Auth(op, ErrNoToken)
	}
	if req.TemplateURL == "" || len(req.Photo) == 0 {
		return nil, apperr.Validation(op, "please select both a template and capture a photo")
	}
	endpoint, err := swapEndpoint(req.Model)
	if err != nil {
		return nil, apperr.Validation(op, err.Error())
	}

	target, targetType, err := c.fetchImage(ctx, op, req.TemplateURL)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := addFilePart(writer, "target", "selected.jpg", targetType, bytes.NewReader(target)); err != nil {
		return nil, err
	}
	photoType := req.PhotoType
	if photoType == "" {
		photoType = "image/jpeg"
	}
	if err := addFilePart(writer, "source", "capture.jpg", photoType, bytes.NewReader(req.Photo)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close multipart writer: %w", err)
	}

	query := url.Values{}
	query.Set("mode", req.Mode)
	query.Set("token", c.token)

	raw, err := doMultipart(ctx, c, op, endpoint+"?"+query.Encode(), &body, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	fields := gjson.GetManyBytes(raw, "swapped_image_url", "qr_code", "model_used")
	if fields[0].String() == "" || fields[1].String() == "" {
		return nil, apperr.MissingArtifact(op, "no image URL or QR code received from server")
	}

	model := fields[2].String()
	if model == "" {
		model = req.Model
	}
	return &SwapResponse{
		SwappedImageURL: fields[0].String(),
		QRCode:          fields[1].String(),
		ModelUsed:       model,
	}, nil
}

// DownloadResult fetches the swapped result image.
func (c *Client) DownloadResult(ctx context.Context, imageURL string) ([]byte, string, error) {
	if imageURL == "" {
		return nil, "", apperr.MissingArtifact("download result", "no result image to download")
	}
	return c.fetchImage(ctx, "download result", imageURL)
}
