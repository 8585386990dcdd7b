package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

const (
	// ServiceTypeSIP is the mDNS service type SIP servers advertise.
	ServiceTypeSIP = "_sip._udp"

	// ServiceTypeDoorbell is the service type the doorbell advertises.
	ServiceTypeDoorbell = "_sipdoor._tcp"

	// Domain is the mDNS domain.
	Domain = "local."
)

// ServerInfo describes a discovered SIP server.
type ServerInfo struct {
	Instance string
	Host     string
	Addr     string
	Port     uint16
}

// Config configures discovery.
type Config struct {
	// Interface restricts mDNS traffic to one interface.
	// Empty means all interfaces.
	Interface string
}

func (c Config) clientOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if c.Interface != "" {
		if iface, err := net.InterfaceByName(c.Interface); err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

func (c Config) serverInterfaces() []net.Interface {
	if c.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(c.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// FindServer browses for a SIP server and returns the first entry that
// carries an IPv4 address. It blocks until a server is found or the
// context is done.
func FindServer(ctx context.Context, cfg Config) (*ServerInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeSIP, Domain, entries, removed, cfg.clientOptions()...)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("discovery: no SIP server found: %w", ctx.Err())

		case <-removed:
			// Removals are irrelevant while searching for the first hit.

		case entry, ok := <-entries:
			if !ok {
				return nil, fmt.Errorf("discovery: browse ended: %w", ctx.Err())
			}
			if info := serverFromEntry(entry); info != nil {
				return info, nil
			}
		}
	}
}

func serverFromEntry(entry *zeroconf.ServiceEntry) *ServerInfo {
	if entry == nil || len(entry.AddrIPv4) == 0 {
		return nil
	}
	return &ServerInfo{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Addr:     entry.AddrIPv4[0].String(),
		Port:     uint16(entry.Port),
	}
}

// Advertiser announces the doorbell on the local network so installer
// tooling can find it.
type Advertiser struct {
	cfg Config

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an advertiser.
func NewAdvertiser(cfg Config) *Advertiser {
	return &Advertiser{cfg: cfg}
}

// Advertise registers the doorbell service. A previous registration is
// replaced.
func (a *Advertiser) Advertise(instance string, port uint16, txt []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		instance,
		ServiceTypeDoorbell,
		Domain,
		int(port),
		txt,
		a.cfg.serverInterfaces(),
	)
	if err != nil {
		return fmt.Errorf("discovery: register service: %w", err)
	}
	a.server = server
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// TXTRecords builds the doorbell's advertisement TXT records.
func TXTRecords(user, version string) []string {
	return []string{
		"user=" + user,
		"ver=" + version,
	}
}
