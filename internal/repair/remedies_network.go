package repair

import (
	"context"
	"strings"
)

// FlushDNS empties the name-resolution cache. Flushing an already-empty
// cache is a no-op success.
func (f *Fixer) FlushDNS(ctx context.Context) bool {
	f.log.Infof("=== FLUSH DNS ===")
	return f.runRemedy(ctx, "Flushing the DNS cache", "ipconfig", "/flushdns")
}

// RenewDHCP releases the current lease, settles, then requests a new one.
// Both sub-steps must succeed.
func (f *Fixer) RenewDHCP(ctx context.Context) bool {
	f.log.Infof("=== DHCP RENEWAL ===")

	released := f.runRemedy(ctx, "Releasing the DHCP lease", "ipconfig", "/release")
	f.sleep(f.env.Config.Network.ReleaseSettle)
	renewed := f.runRemedy(ctx, "Renewing the DHCP lease", "ipconfig", "/renew")

	return released && renewed
}

// ResetWiFiAdapter toggles the wireless adapter off and on with a settle
// wait in between. When no wireless adapter is present the remedy reports
// failure without touching anything.
func (f *Fixer) ResetWiFiAdapter(ctx context.Context) bool {
	f.log.Infof("=== WIFI ADAPTER RESET ===")

	iface := f.env.Config.Network.WiFiInterface
	probe := f.env.Runner.Run(ctx, cmdRead(f.env, "netsh", "wlan", "show", "interfaces"))
	if probe.OK() &&
		!strings.Contains(probe.Stdout, "Wi-Fi") &&
		!strings.Contains(probe.Stdout, "Wireless") {
		f.log.Warningf("no Wi-Fi adapter found")
		return false
	}

	disabled := f.runRemedy(ctx, "Disabling the Wi-Fi adapter",
		"netsh", "interface", "set", "interface", iface, "disable")
	f.sleep(f.env.Config.Network.AdapterSettle)
	enabled := f.runRemedy(ctx, "Re-enabling the Wi-Fi adapter",
		"netsh", "interface", "set", "interface", iface, "enable")

	return disabled && enabled
}

// ResetWinsock rebuilds the Winsock catalog. A reboot is needed for the
// reset to take full effect.
func (f *Fixer) ResetWinsock(ctx context.Context) bool {
	f.log.Infof("=== WINSOCK RESET ===")
	return f.runRemedy(ctx, "Resetting Winsock (reboot recommended)",
		"netsh", "winsock", "reset")
}

// ResetTCPIP reinitializes the IPv4 and IPv6 stacks. Both sub-steps must
// succeed.
func (f *Fixer) ResetTCPIP(ctx context.Context) bool {
	f.log.Infof("=== TCP/IP RESET ===")
	v4 := f.runRemedy(ctx, "Resetting the TCP/IP stack", "netsh", "int", "ip", "reset")
	v6 := f.runRemedy(ctx, "Resetting the IPv6 stack", "netsh", "int", "ipv6", "reset")
	return v4 && v6
}

// SetStaticDNS points the first responsive interface at public resolvers
// (8.8.8.8 primary, 8.8.4.4 secondary).
func (f *Fixer) SetStaticDNS(ctx context.Context) bool {
	f.log.Infof("=== STATIC DNS CONFIGURATION ===")

	for _, iface := range f.env.Config.Network.DNSInterfaces {
		primary := f.runRemedy(ctx, "Setting primary DNS on "+iface,
			"netsh", "interface", "ip", "set", "dns", iface, "static", "8.8.8.8", "primary")
		if primary {
			f.runRemedy(ctx, "Setting secondary DNS on "+iface,
				"netsh", "interface", "ip", "add", "dns", iface, "8.8.4.4", "index=2")
			return true
		}
	}
	return false
}
