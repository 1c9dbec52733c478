package boothapi

import (
	"context"
	"net/http"

	"github.com/kozaktomas/photo-booth/internal/apperr"
)

// AutoLogin exchanges a device key for a session token.
func (c *Client) AutoLogin(ctx context.Context, deviceKey string) (*AuthResponse, error) {
	const op = "autologin"
	if deviceKey == "" {
		return nil, apperr.Validation(op, "device key is required")
	}
	body := map[string]string{"device_key": deviceKey}
	return doRequestJSON[AuthResponse](ctx, c, op, http.MethodPost, "api/autologin", body)
}

// Login authenticates with email and password and binds the device key.
func (c *Client) Login(ctx context.Context, email, password, deviceKey string) (*AuthResponse, error) {
	const op = "login"
	if email == "" || password == "" {
		return nil, apperr.Validation(op, "email and password are required")
	}
	body := map[string]string{
		"email":     email,
		"password":  password,
		"deviceKey": deviceKey,
	}
	return doRequestJSON[AuthResponse](ctx, c, op, http.MethodPost, "api/login", body)
}

// Heartbeat reports backend health and which swap models are available.
func (c *Client) Heartbeat(ctx context.Context) (*HeartbeatResponse, error) {
	return doGetJSON[HeartbeatResponse](ctx, c, "heartbeat", "api/heartbeat")
}
