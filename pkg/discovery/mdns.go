package discovery

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/poltys-apps/dcare-pager-gw/pkg/version"
)

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu      sync.Mutex
	stopped bool
	cancels []context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.BrowseTimeout <= 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &MDNSBrowser{config: config}
}

// Browse searches for pager servers.
// Services are aggregated by instance name - addresses from multiple interfaces
// are combined into a single entry. Removals are handled when interfaces disappear.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Server, error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil, context.Canceled
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()

	out := make(chan *Server)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		defer close(out)
		defer cancel()

		services := make(map[string]*Server)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				srv := entryToServer(entry)
				if srv == nil || !b.accepts(srv) {
					continue
				}

				existing, found := services[srv.Instance]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, srv.Addresses)
					continue
				}
				services[srv.Instance] = srv
				select {
				case out <- srv.clone():
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypePager, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// Find returns the first matching server.
func (b *MDNSBrowser) Find(ctx context.Context) (*Server, error) {
	return findFirst(ctx, b, b.config.BrowseTimeout)
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = nil
}

// accepts filters by site and drops servers speaking another protocol
// major version.
func (b *MDNSBrowser) accepts(srv *Server) bool {
	if b.config.Site != "" && srv.Site != b.config.Site {
		return false
	}
	return version.Supported(srv.Version)
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// findFirst browses until the first server arrives or timeout elapses.
func findFirst(ctx context.Context, b Browser, timeout time.Duration) (*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	select {
	case srv, ok := <-results:
		if !ok || srv == nil {
			if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, ErrNotFound
		}
		return srv, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrNotFound
		}
		return nil, ctx.Err()
	}
}

// entryToServer converts a zeroconf entry to a Server. Entries with
// malformed TXT records are ignored.
func entryToServer(entry *zeroconf.ServiceEntry) *Server {
	if entry == nil {
		return nil
	}
	info, err := decodeServerTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Server{
		Instance:  entry.Instance,
		Host:      entry.HostName,
		Port:      port,
		Addresses: addrs,
		Site:      info.Site,
		APIPort:   info.APIPort,
		Version:   info.Version,
	}
}

func (s *Server) clone() *Server {
	c := *s
	c.Addresses = append([]string(nil), s.Addresses...)
	return &c
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes the addresses of a zeroconf entry from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
