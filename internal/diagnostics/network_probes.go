package diagnostics

import (
	"context"
	"net"
	"strings"
)

// Probe is a single read-only check producing a fact about the system.
// Probes absorb every failure into a negative result; failure to observe
// is diagnostic information, not a fault.
type Probe interface {
	Name() string
	Description() string
	Run(ctx context.Context, env *Env) ProbeResult
}

// ConnectivityProbe tests raw internet reachability with a short TCP dial
// to a well-known resolver.
type ConnectivityProbe struct{}

func (p *ConnectivityProbe) Name() string { return "connectivity" }

func (p *ConnectivityProbe) Description() string {
	return "Testing internet reachability"
}

func (p *ConnectivityProbe) Run(ctx context.Context, env *Env) ProbeResult {
	target := env.Config.Network.ConnectivityTarget
	conn, err := env.Dial("tcp", target, env.Config.Network.ConnectivityTimeout)
	if err != nil {
		return ProbeResult{Name: p.Name(), OK: false, Detail: err.Error()}
	}
	conn.Close()
	return ProbeResult{Name: p.Name(), OK: true, Detail: target}
}

// ResolutionProbe tests DNS name resolution against a well-known hostname.
type ResolutionProbe struct{}

func (p *ResolutionProbe) Name() string { return "dns_resolution" }

func (p *ResolutionProbe) Description() string {
	return "Testing DNS name resolution"
}

func (p *ResolutionProbe) Run(ctx context.Context, env *Env) ProbeResult {
	host := env.Config.Network.ResolveHost
	addrs, err := env.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		detail := "no addresses"
		if err != nil {
			detail = err.Error()
		}
		return ProbeResult{Name: p.Name(), OK: false, Detail: detail}
	}
	return ProbeResult{Name: p.Name(), OK: true, Detail: addrs[0]}
}

// GatewayProbe inspects the routing table for a default route.
type GatewayProbe struct{}

func (p *GatewayProbe) Name() string { return "default_gateway" }

func (p *GatewayProbe) Description() string {
	return "Checking for a default route"
}

func (p *GatewayProbe) Run(ctx context.Context, env *Env) ProbeResult {
	out := env.run(ctx, "route", "print", "0.0.0.0")
	if !out.OK() {
		return ProbeResult{Name: p.Name(), OK: false, Detail: out.Stderr}
	}
	if !strings.Contains(out.Stdout, "0.0.0.0") {
		return ProbeResult{Name: p.Name(), OK: false, Detail: "no default route entry"}
	}
	return ProbeResult{Name: p.Name(), OK: true}
}

// LocalIPProbe learns the outbound local address with a UDP dial. No
// packet is sent; the kernel just picks the source address.
type LocalIPProbe struct{}

func (p *LocalIPProbe) Name() string { return "local_ip" }

func (p *LocalIPProbe) Description() string {
	return "Determining the local IP address"
}

func (p *LocalIPProbe) Run(ctx context.Context, env *Env) ProbeResult {
	conn, err := env.Dial("udp", env.Config.SysInfo.LocalIPTarget, env.Config.Network.ConnectivityTimeout)
	if err != nil {
		return ProbeResult{Name: p.Name(), OK: false, Detail: err.Error()}
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return ProbeResult{Name: p.Name(), OK: false, Detail: "no local address"}
	}
	return ProbeResult{Name: p.Name(), OK: true, Detail: addr.IP.String()}
}

// NetworkProbes returns the probe set the network aggregator runs, in
// execution order.
func NetworkProbes() []Probe {
	return []Probe{
		&ConnectivityProbe{},
		&ResolutionProbe{},
		&LocalIPProbe{},
		&GatewayProbe{},
	}
}
