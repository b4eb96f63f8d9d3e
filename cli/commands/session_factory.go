package commands

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/petrel-labs/brook/cli/keystore"
	"github.com/petrel-labs/brook/core"
	"github.com/petrel-labs/brook/transport"
)

// tokenEnvVar overrides keystore lookups when set.
const tokenEnvVar = "BROOK_TOKEN"

// newClient builds a core.Client from the loaded config and global flags.
func newClient() (*core.Client, error) {
	session, err := newSession()
	if err != nil {
		return nil, err
	}
	return core.NewClient(session, core.WithTelemetry(logTelemetry{})), nil
}

// newSession builds the transport session with the effective read timeout
// and bearer token.
func newSession() (*transport.Session, error) {
	var opts []transport.Option

	if t := GetReadTimeout(); t > 0 {
		opts = append(opts, transport.WithReadTimeout(t))
	}

	token, err := resolveToken()
	if err != nil {
		return nil, err
	}
	if token != "" {
		opts = append(opts, transport.WithBearerToken(core.NewSecret(token)))
	}

	return transport.New(opts...), nil
}

// resolveURL turns a command-line argument into an absolute URL. Absolute
// arguments pass through; relative ones are joined to the configured
// endpoint's base URL.
func resolveURL(arg string) (string, error) {
	u, err := url.Parse(arg)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", arg, err)
	}
	if u.IsAbs() {
		return arg, nil
	}

	name := GetEndpointName()
	if name == "" {
		return "", fmt.Errorf("relative path %q requires --endpoint or default_endpoint in config", arg)
	}

	cfg := GetConfig()
	if cfg == nil {
		return "", fmt.Errorf("endpoint %q not found in config", name)
	}
	ec := cfg.GetEndpoint(name)
	if ec == nil {
		return "", fmt.Errorf("endpoint %q not found in config", name)
	}
	if ec.BaseURL == "" {
		return "", fmt.Errorf("endpoint %q has no base_url", name)
	}

	base := strings.TrimSuffix(ec.BaseURL, "/")
	path := strings.TrimPrefix(arg, "/")
	return base + "/" + path, nil
}

// resolveToken finds the bearer token for the effective endpoint.
// The BROOK_TOKEN environment variable wins; otherwise the endpoint's
// token_ref is looked up in the keystore. No configured reference means
// anonymous access.
func resolveToken() (string, error) {
	if token := os.Getenv(tokenEnvVar); token != "" {
		return token, nil
	}

	name := GetEndpointName()
	if name == "" {
		return "", nil
	}
	cfg := GetConfig()
	if cfg == nil {
		return "", nil
	}
	ec := cfg.GetEndpoint(name)
	if ec == nil || ec.TokenRef == "" {
		return "", nil
	}

	ks, err := keystore.NewKeystore()
	if err != nil {
		return "", fmt.Errorf("failed to open keystore: %w", err)
	}

	token, err := ks.Get(ec.TokenRef)
	if err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return "", fmt.Errorf("no token for %s: run 'brook keys set %s' first", ec.TokenRef, ec.TokenRef)
		}
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// logTelemetry reports transfer lifecycle events through zerolog.
type logTelemetry struct{}

func (logTelemetry) OnTransferStart(e core.TransferStartEvent) {
	log.Debug().
		Str("method", e.Method).
		Str("url", e.URL).
		Msg("transfer started")
}

func (logTelemetry) OnTransferEnd(e core.TransferEndEvent) {
	evt := log.Debug().
		Str("method", e.Method).
		Str("url", e.URL).
		Int("status", e.Status).
		Int64("bytes", e.BytesRead).
		Dur("duration", e.Duration())
	if e.RequestID != "" {
		evt = evt.Str("request_id", e.RequestID)
	}
	if e.Err != nil {
		evt = evt.Err(e.Err)
	}
	evt.Msg("transfer finished")
}

var _ core.TelemetryHook = logTelemetry{}
