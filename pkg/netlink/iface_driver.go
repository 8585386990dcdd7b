package netlink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPollInterval is the default interface polling period.
const DefaultPollInterval = 500 * time.Millisecond

// IfaceDriverConfig configures the polling interface driver.
type IfaceDriverConfig struct {
	// PollInterval is how often the interface is sampled.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// AssociateFunc is invoked on Associate. The wireless supplicant
	// owns actual association; this hook lets deployments kick it
	// (for example via a wpa_cli wrapper). May be nil.
	AssociateFunc func()
}

// IfaceDriver watches a network interface and synthesizes link
// notifications from its carrier and address state. It emits Started
// once, Disconnected on up->down edges and AddressAcquired whenever the
// interface gains or changes its IPv4 address.
type IfaceDriver struct {
	name string
	cfg  IfaceDriverConfig

	mu      sync.Mutex
	handler Handler
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Poll loop state, owned by the poll goroutine.
	up       bool
	lastAddr string
}

// NewIfaceDriver creates a driver watching the named interface.
// Returns an error when the interface does not exist; callers treat
// this as fatal at process start.
func NewIfaceDriver(name string, cfg IfaceDriverConfig) (*IfaceDriver, error) {
	if _, err := net.InterfaceByName(name); err != nil {
		return nil, fmt.Errorf("netlink: interface %q: %w", name, err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &IfaceDriver{name: name, cfg: cfg}, nil
}

// Start begins polling and delivers an initial Started notification.
func (d *IfaceDriver) Start(h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopCh != nil {
		return fmt.Errorf("netlink: driver already started")
	}
	d.handler = h
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})

	go d.pollLoop(d.stopCh, d.doneCh)
	h(Event{Type: EventStarted})
	return nil
}

// Associate invokes the configured association hook asynchronously.
func (d *IfaceDriver) Associate() {
	fn := d.cfg.AssociateFunc
	if fn == nil {
		return
	}
	go fn()
}

// Stop stops polling and waits for the poll goroutine to exit.
func (d *IfaceDriver) Stop() {
	d.mu.Lock()
	stopCh, doneCh := d.stopCh, d.doneCh
	d.stopCh = nil
	d.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (d *IfaceDriver) pollLoop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			d.sample()
		}
	}
}

// sample reads the interface state once and emits edge notifications.
func (d *IfaceDriver) sample() {
	addr := d.currentAddr()
	up := addr != ""

	switch {
	case up && (!d.up || addr != d.lastAddr):
		d.up = true
		d.lastAddr = addr
		d.handler(Event{
			Type:        EventAddressAcquired,
			LocalAddr:   addr,
			GatewayAddr: defaultGateway(d.name),
		})
	case !up && d.up:
		d.up = false
		d.lastAddr = ""
		d.handler(Event{Type: EventDisconnected})
	}
}

// currentAddr returns the interface's first global IPv4 address, or "".
func (d *IfaceDriver) currentAddr() string {
	iface, err := net.InterfaceByName(d.name)
	if err != nil || iface.Flags&net.FlagUp == 0 {
		return ""
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLinkLocalUnicast() || ip.IsLoopback() {
			continue
		}
		return ip.String()
	}
	return ""
}

// defaultGateway reads the default IPv4 gateway for the interface from
// /proc/net/route. Returns "" when it cannot be determined.
func defaultGateway(iface string) string {
	f, err := os.Open("/proc/net/route")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Scan() // header
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || fields[0] != iface {
			continue
		}
		// Destination 00000000 marks the default route.
		if fields[1] != "00000000" {
			continue
		}
		gw, err := strconv.ParseUint(fields[2], 16, 32)
		if err != nil {
			continue
		}
		ip := make(net.IP, 4)
		binary.LittleEndian.PutUint32(ip, uint32(gw))
		return ip.String()
	}
	return ""
}
