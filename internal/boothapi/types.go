package boothapi

// ImageStructure maps gender -> category -> template image URLs.
type ImageStructure map[string]map[string][]string

// ImagesResponse is the payload of GET /api/images.
type ImagesResponse struct {
	Structure          ImageStructure `json:"structure"`
	UserTemplatesCount int            `json:"user_tempelets_count"`
}

// SwapRequest is a single face or head swap submission.
type SwapRequest struct {
	TemplateURL string
	Photo       []byte
	PhotoType   string
	Mode        string
	Model       string
}

// SwapResponse is the payload of a successful swap.
type SwapResponse struct {
	SwappedImageURL string `json:"swapped_image_url"`
	QRCode          string `json:"qr_code"`
	ModelUsed       string `json:"model_used,omitempty"`
}

// UploadResponse is the payload of POST /upload.
type UploadResponse struct {
	Message   string `json:"message"`
	SecureURL string `json:"secure_url"`
}

// DeleteResponse is the payload of DELETE /delete.
type DeleteResponse struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// AuthResponse is the payload of the login and autologin endpoints.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// HeartbeatResponse reports backend and model availability.
type HeartbeatResponse struct {
	Status             string `json:"status"`
	InswapperAvailable bool   `json:"inswapper_available"`
	HeadswapAvailable  bool   `json:"headswap_available"`
}
