package cli

import (
	"errors"
	"fmt"

	"github.com/terrawatch/terrawatch/internal/api"
	"github.com/terrawatch/terrawatch/internal/auth"
	"github.com/terrawatch/terrawatch/internal/config"
	"github.com/terrawatch/terrawatch/internal/pages"
	"github.com/terrawatch/terrawatch/internal/ui"
)

// newClient builds a backend client carrying the session token
func newClient(cfg *config.Config, session *auth.Session) (*api.Client, error) {
	opts := []api.Option{
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(newLogger("api")),
	}
	if session != nil && session.Token != "" {
		opts = append(opts, api.WithToken(session.Token))
	}
	return api.New(cfg.API.BaseURL, opts...)
}

// connector adapts newClient for the terminal UI
func connector(cfg *config.Config) ui.Connector {
	return func(session *auth.Session) (ui.Backend, error) {
		client, err := newClient(cfg, session)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// signedInClient resolves the configured identity and connects with it
func signedInClient() (*api.Client, *auth.Session, error) {
	cfg := GetGlobalConfig()
	session, err := auth.Resolve(cfg.Auth)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !session.SignedIn() {
		return nil, nil, fmt.Errorf("%w (set auth.token or auth.user_id, or %sAUTH_TOKEN)", auth.ErrSignedOut, config.EnvPrefix)
	}
	client, err := newClient(cfg, session)
	if err != nil {
		return nil, nil, err
	}
	return client, session, nil
}

// describeError appends the underlying cause to a page error message
func describeError(err error) error {
	var uerr *pages.UserError
	if errors.As(err, &uerr) && uerr.Cause != nil && !errors.Is(uerr.Cause, auth.ErrSignedOut) {
		return fmt.Errorf("%w: %v", err, uerr.Cause)
	}
	return err
}
