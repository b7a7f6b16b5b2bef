// Package discovery finds the pager server on the local network over
// mDNS/DNS-SD.
//
// # Pager Service (_dcarepager._udp)
//
// The server advertises one instance per site. The SRV port is the UDP
// alert port (18806 by default).
// TXT records include: site (site name), api (HTTP port of the
// configuration API) and ver (server version).
//
// Discovery is optional. When the destination address setting is blank,
// Resolve browses for a server and stores the first address it finds.
package discovery
