package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerFromEntry(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		AddrIPv4: []net.IP{net.IPv4(192, 168, 1, 10)},
	}
	entry.Instance = "pbx"
	entry.HostName = "pbx.local."
	entry.Port = 5060

	info := serverFromEntry(entry)
	require.NotNil(t, info)
	assert.Equal(t, "pbx", info.Instance)
	assert.Equal(t, "pbx.local.", info.Host)
	assert.Equal(t, "192.168.1.10", info.Addr)
	assert.Equal(t, uint16(5060), info.Port)
}

func TestServerFromEntrySkipsIPv6Only(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
	}
	entry.Instance = "pbx"

	assert.Nil(t, serverFromEntry(entry))
	assert.Nil(t, serverFromEntry(nil))
}

func TestFindServerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := FindServer(ctx, Config{Interface: "lo"})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestTXTRecords(t *testing.T) {
	txt := TXTRecords("door", "1.2.0")
	assert.Equal(t, []string{"user=door", "ver=1.2.0"}, txt)
}

func TestClientOptionsUnknownInterface(t *testing.T) {
	// An unknown interface falls back to all interfaces.
	assert.Empty(t, Config{Interface: "does-not-exist0"}.clientOptions())
	assert.Nil(t, Config{Interface: "does-not-exist0"}.serverInterfaces())
}
