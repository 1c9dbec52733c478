package boothapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"

	"github.com/kozaktomas/photo-booth/internal/apperr"
)

// do sends req and returns the response body. Responses whose status is not
// one of expected become Transport errors carrying the server's detail message.
func (c *Client) do(op, endpoint string, req *http.Request, expected ...int) ([]byte, error) {
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL constructed from the configured base URL via resolveURL
	if err != nil {
		return nil, apperr.Transport(op, fmt.Errorf("could not send request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Transport(op, fmt.Errorf("could not read response body: %w", err))
	}

	if !slices.Contains(expected, resp.StatusCode) {
		return nil, apperr.TransportMessage(op, fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, errorDetail(body)))
	}

	c.captureResponse(endpoint, body)
	return body, nil
}

// decodeJSON unmarshals a response body into the result type.
func decodeJSON[T any](op string, body []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperr.Transport(op, fmt.Errorf("could not unmarshal response: %w", err))
	}
	return &result, nil
}

// doGetJSON performs a GET request and unmarshals the JSON response into the result type.
func doGetJSON[T any](ctx context.Context, c *Client, op, endpoint string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	body, err := c.do(op, endpoint, req)
	if err != nil {
		return nil, err
	}
	return decodeJSON[T](op, body)
}

// doRequestJSON performs a request with an optional JSON body and unmarshals the JSON response.
func doRequestJSON[T any](ctx context.Context, c *Client, op, method, endpoint string, requestBody any) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, err := c.do(op, endpoint, req)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		var zero T
		return &zero, nil
	}
	return decodeJSON[T](op, body)
}

// doMultipart posts a multipart form and returns the raw response body.
func doMultipart(ctx context.Context, c *Client, op, endpoint string, body *bytes.Buffer, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolveURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(op, endpoint, req)
}

// addFilePart writes a file field with an explicit content type to the multipart writer.
func addFilePart(writer *multipart.Writer, field, filename, contentType string, data io.Reader) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return fmt.Errorf("could not copy file data: %w", err)
	}
	return nil
}

// fetchImage downloads an image by URL and returns its bytes and content type.
func (c *Client) fetchImage(ctx context.Context, op, ref string) ([]byte, string, error) {
	imageURL, err := c.absoluteURL(ref)
	if err != nil {
		return nil, "", apperr.Validation(op, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // image URLs come from the gallery or swap response
	if err != nil {
		return nil, "", apperr.Transport(op, fmt.Errorf("failed to fetch image: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apperr.TransportMessage(op, fmt.Sprintf("failed to fetch image: %s", resp.Status))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.Transport(op, fmt.Errorf("could not read image: %w", err))
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
