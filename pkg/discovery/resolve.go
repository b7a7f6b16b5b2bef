package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poltys-apps/dcare-pager-gw/pkg/settings"
)

// Resolve returns the configured destination address. When it is blank,
// Resolve finds a server with b and stores its address in the settings,
// which in turn starts any session watching that key.
func Resolve(ctx context.Context, b Browser, store *settings.Store, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if dest := strings.TrimSpace(store.String(settings.DestinationAddress)); dest != "" {
		return dest, nil
	}

	srv, err := b.Find(ctx)
	if err != nil {
		return "", fmt.Errorf("discover pager server: %w", err)
	}

	dest := srv.Destination()
	if dest == "" {
		return "", fmt.Errorf("discover pager server: %w: %s has no address", ErrNotFound, srv.Instance)
	}

	logger.Info("discovered pager server",
		"instance", srv.Instance,
		"site", srv.Site,
		"address", dest,
		"port", srv.Port)

	if err := store.Set(settings.DestinationAddress, dest); err != nil {
		return "", fmt.Errorf("store destination: %w", err)
	}
	return dest, nil
}
