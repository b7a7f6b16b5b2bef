package discovery

import (
	"context"
	"time"
)

// Browser provides mDNS service browsing capabilities.
type Browser interface {
	// Browse searches for pager servers. Each instance is emitted once;
	// later announcements only add addresses. The channel is closed when
	// ctx is cancelled.
	Browse(ctx context.Context) (<-chan *Server, error)

	// Find returns the first server found, or ErrNotFound when the browse
	// timeout elapses.
	Find(ctx context.Context) (*Server, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds Find.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Site restricts results to servers announcing this site name.
	// Empty string accepts every site.
	Site string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}
