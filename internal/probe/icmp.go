package probe

import (
	"context"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/hamed0406/sysmon/internal/domain"
)

// IANA protocol numbers for ICMP and ICMPv6.
const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
)

// ICMPChecker sends one echo request and waits for the matching reply.
// Privileged checkers use a raw socket, so the process must run with
// CAP_NET_RAW or as root. Unprivileged ones use a datagram ICMP socket,
// which on Linux requires the group to be in net.ipv4.ping_group_range.
type ICMPChecker struct {
	Resolver   *net.Resolver
	Privileged bool
	now        func() time.Time
}

func NewICMPChecker() *ICMPChecker {
	return &ICMPChecker{Resolver: net.DefaultResolver, Privileged: true, now: time.Now}
}

func (c *ICMPChecker) Check(ctx context.Context, req Request) Outcome {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	dst, err := c.resolve(ctx, hostOnly(req.Host))
	if err != nil {
		if isTimeout(ctx, err) {
			return timedOut()
		}
		return connectionError()
	}

	rtt, err := c.ping(ctx, dst)
	if err != nil {
		if isTimeout(ctx, err) {
			return timedOut()
		}
		return connectionError()
	}
	return classify(true, "echo", rtt, req.Warning)
}

func (c *ICMPChecker) resolve(ctx context.Context, host string) (*net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return &net.IPAddr{IP: ip}, nil
	}
	addrs, err := c.Resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			return &net.IPAddr{IP: a.IP, Zone: a.Zone}, nil
		}
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no A or AAAA record found", Name: host, IsNotFound: true}
	}
	return &addrs[0], nil
}

func (c *ICMPChecker) ping(ctx context.Context, dst *net.IPAddr) (time.Duration, error) {
	network, listen, proto := "ip4:icmp", "0.0.0.0", protocolICMP
	var echoType, replyType icmp.Type = ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	if dst.IP.To4() == nil {
		network, listen, proto = "ip6:ipv6-icmp", "::", protocolIPv6ICMP
		echoType, replyType = ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
	}
	var to net.Addr = dst
	if !c.Privileged {
		network = "udp4"
		if proto == protocolIPv6ICMP {
			network = "udp6"
		}
		to = &net.UDPAddr{IP: dst.IP, Zone: dst.Zone}
	}

	conn, err := icmp.ListenPacket(network, listen)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = c.now().Add(domain.DefaultTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return 0, err
	}

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: echoType,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  1,
			Data: []byte(strings.Repeat("ping", 14)),
		},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	start := c.now()
	if _, err := conn.WriteTo(wire, to); err != nil {
		return 0, err
	}

	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, err
		}
		reply, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != replyType {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.Seq != 1 {
			continue
		}
		// Datagram sockets rewrite the echo ID to the local port and only
		// deliver replies addressed to it.
		if !c.Privileged || echo.ID == id {
			return c.now().Sub(start), nil
		}
	}
}
