package credentials

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kozaktomas/photo-booth/internal/apperr"
	"github.com/kozaktomas/photo-booth/internal/boothapi"
)

// ErrLoginRequired means neither auto-login nor a stored session produced a
// token; the user has to log in.
var ErrLoginRequired = errors.New("login required")

// Authenticator talks to the login endpoints.
type Authenticator interface {
	AutoLogin(ctx context.Context, deviceKey string) (*boothapi.AuthResponse, error)
	Login(ctx context.Context, email, password, deviceKey string) (*boothapi.AuthResponse, error)
}

// Resolver finds a usable session token at startup.
type Resolver struct {
	auth          Authenticator
	store         *Store
	logins        *LoginLog
	deviceKey     string
	loginDuration time.Duration
}

// NewResolver creates a resolver. loginDuration bounds how old the last
// login may be for a stored token to be reused.
func NewResolver(auth Authenticator, store *Store, logins *LoginLog, deviceKey string, loginDuration time.Duration) *Resolver {
	return &Resolver{
		auth:          auth,
		store:         store,
		logins:        logins,
		deviceKey:     deviceKey,
		loginDuration: loginDuration,
	}
}

// Resolve tries auto-login with the device key first, then a stored token
// whose last login is recent enough. It returns an Auth error wrapping
// ErrLoginRequired when neither works.
func (r *Resolver) Resolve(ctx context.Context) (*Credentials, error) {
	const op = "resolve credentials"

	deviceKey := r.deviceKey
	stored, err := r.store.Load()
	if err != nil {
		log.WithError(err).Warn("Ignoring unreadable stored credentials")
		stored = nil
	}
	if deviceKey == "" && stored != nil {
		deviceKey = stored.DeviceKey
	}

	if deviceKey != "" {
		resp, err := r.auth.AutoLogin(ctx, deviceKey)
		if err == nil {
			return r.persist(*resp, deviceKey)
		}
		log.WithError(err).Warn("Auto-login failed")
	}

	if stored != nil && stored.Token != "" {
		valid, err := r.logins.Valid(r.loginDuration)
		if err != nil {
			log.WithError(err).Warn("Could not read login history")
		}
		if valid {
			return stored, nil
		}
		log.Info("Stored session expired")
	}

	return nil, apperr.Auth(op, ErrLoginRequired)
}

// Login authenticates with email and password and stores the session.
func (r *Resolver) Login(ctx context.Context, email, password string) (*Credentials, error) {
	resp, err := r.auth.Login(ctx, email, password, r.deviceKey)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindTransport {
			return nil, apperr.Auth("login", err)
		}
		return nil, err
	}
	return r.persist(*resp, r.deviceKey)
}

// Logout removes the stored session.
func (r *Resolver) Logout() error {
	return r.store.Clear()
}

func (r *Resolver) persist(resp boothapi.AuthResponse, deviceKey string) (*Credentials, error) {
	if resp.Token == "" {
		return nil, apperr.MissingArtifact("login", "no token received from server")
	}

	creds := Credentials{
		Token:     resp.Token,
		Email:     resp.Email,
		Name:      resp.Name,
		DeviceKey: deviceKey,
		SavedAt:   time.Now().UTC(),
	}
	if err := r.store.Save(creds); err != nil {
		return nil, err
	}
	if err := r.logins.Append(resp.Token, resp.Email, resp.Name); err != nil {
		log.WithError(err).Warn("Failed to append login history")
	}

	log.WithFields(log.Fields{
		"email": resp.Email,
		"name":  resp.Name,
	}).Info("Logged in")
	return &creds, nil
}
