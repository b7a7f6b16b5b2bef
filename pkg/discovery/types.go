package discovery

import (
	"errors"
	"net"
	"strings"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypePager is the service type announced by pager servers.
	ServiceTypePager = "_dcarepager._udp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default alert port.
	DefaultPort = 18806
)

// TXT record key constants.
const (
	TXTKeySite    = "site" // Site name
	TXTKeyAPIPort = "api"  // HTTP API port (optional)
	TXTKeyVersion = "ver"  // Server version (optional)
)

// BrowseTimeout is the default timeout for Find.
const BrowseTimeout = 10 * time.Second

// Discovery errors.
var (
	ErrInvalidTXTRecord = errors.New("invalid TXT record format")
	ErrNotFound         = errors.New("service not found")
)

// TXTRecordMap holds decoded TXT key/value pairs.
type TXTRecordMap map[string]string

// Server is a discovered pager server. Addresses from all interfaces
// announcing the same instance are aggregated.
type Server struct {
	// Instance is the mDNS instance name.
	Instance string

	// Host is the advertised host name.
	Host string

	// Port is the UDP alert port.
	Port int

	// Addresses lists IPv4 addresses first, then IPv6.
	Addresses []string

	Site    string
	APIPort int
	Version string
}

// Destination returns the address to store as the destination setting:
// the first IPv4 address, else the first address, else the host name.
func (s *Server) Destination() string {
	for _, a := range s.Addresses {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			return a
		}
	}
	if len(s.Addresses) > 0 {
		return s.Addresses[0]
	}
	return strings.TrimSuffix(s.Host, ".")
}
