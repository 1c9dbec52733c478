package kiosk

import (
	"context"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/boothapi"
	"github.com/kozaktomas/photo-booth/internal/workflow"
)

// SwapClient is the part of the booth API client used for swaps.
type SwapClient interface {
	Swap(ctx context.Context, req boothapi.SwapRequest) (*boothapi.SwapResponse, error)
}

// APISwapper submits workflow swap requests to the booth API.
type APISwapper struct {
	client SwapClient
}

// NewAPISwapper creates a swapper backed by client.
func NewAPISwapper(client SwapClient) *APISwapper {
	return &APISwapper{client: client}
}

// Swap implements workflow.Swapper.
func (s *APISwapper) Swap(ctx context.Context, req workflow.SwapRequest) (*workflow.SwapResult, error) {
	if req.Photo == nil {
		return nil, apperr.Validation("swap", "please select both a template and capture a photo")
	}

	resp, err := s.client.Swap(ctx, boothapi.SwapRequest{
		TemplateURL: req.TemplateImage,
		Photo:       req.Photo.Data,
		PhotoType:   req.Photo.ContentType,
		Mode:        req.Mode,
		Model:       req.Model,
	})
	if err != nil {
		return nil, err
	}

	return &workflow.SwapResult{
		ResultImageURL: resp.SwappedImageURL,
		ShareCode:      resp.QRCode,
		Model:          resp.ModelUsed,
	}, nil
}
