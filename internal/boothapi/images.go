package boothapi

import "context"

// Images returns the template gallery structure and the number of
// user-uploaded templates.
func (c *Client) Images(ctx context.Context) (*ImagesResponse, error) {
	resp, err := doGetJSON[ImagesResponse](ctx, c, "images", "api/images")
	if err != nil {
		return nil, err
	}
	if resp.Structure == nil {
		resp.Structure = ImageStructure{}
	}
	return resp, nil
}
