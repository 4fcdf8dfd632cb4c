// Package discovery finds WLED devices on the local network via mDNS.
//
// Controllers announce themselves as _wled._tcp service instances. A scan
// browses for a bounded window and returns whatever answered in time;
// repeated scans may return different subsets on busy networks.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
)

// serviceType is the mDNS service WLED firmware registers.
const serviceType = "_wled._tcp"

// defaultScanWindow bounds a scan when the caller passes no timeout.
const defaultScanWindow = 5 * time.Second

// Device is one discovered controller.
type Device struct {
	// Host is the mDNS hostname, suitable for DeviceConfig.Host.
	Host string `json:"host"`

	// Name is the service instance name announced by the device.
	Name string `json:"name"`

	// Addr is the first resolved IPv4 address, empty if none resolved.
	Addr string `json:"addr"`

	Port int `json:"port"`
}

// Scan browses the local network for controllers.
//
// Parameters:
//   - ctx: Context for cancellation
//   - window: How long to listen for announcements; <= 0 uses the default
//
// Returns:
//   - []Device: Devices that answered within the window, may be empty
//   - error: If the resolver cannot be created or browsing fails to start
func Scan(ctx context.Context, window time.Duration) ([]Device, error) {
	if window <= 0 {
		window = defaultScanWindow
	}

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: creating resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	if err := resolver.Browse(scanCtx, serviceType, "local.", entries); err != nil {
		return nil, fmt.Errorf("discovery: browsing %s: %w", serviceType, err)
	}

	var devices []Device
	for entry := range entries {
		dev := Device{
			Host: entry.HostName,
			Name: entry.Instance,
			Port: entry.Port,
		}
		if len(entry.AddrIPv4) > 0 {
			dev.Addr = entry.AddrIPv4[0].String()
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
