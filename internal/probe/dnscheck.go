package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hamed0406/sysmon/internal/domain"
)

// DNS resolution classes.
const (
	DNSResolves    = "RESOLVES"
	DNSNXDomain    = "NXDOMAIN"
	DNSNoARecord   = "NO_A_RECORD"
	DNSServFail    = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName = "INVALID_NAME"
)

type DNSStatus struct {
	Domain        string
	HasAOrAAAA    bool
	IPs           []net.IP
	CNAME         string
	HasNS         bool
	Nameservers   []string
	Class         string
	ResolverError string
}

// CheckDNS resolves domain with r and classifies the answer. It bounds itself
// by ctx only.
func CheckDNS(ctx context.Context, r *net.Resolver, name string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(name)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = DNSInvalidName
		return s
	}

	ips, err := r.LookupIP(ctx, "ip", s.Domain)
	if err == nil && len(ips) > 0 {
		s.HasAOrAAAA = true
		s.IPs = ips
		s.Class = DNSResolves
	} else if err != nil {
		var de *net.DNSError
		s.ResolverError = err.Error()
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServFail
			}
		}
	}
	if s.HasAOrAAAA {
		return s
	}

	if cname, err := r.LookupCNAME(ctx, s.Domain); err == nil && !strings.EqualFold(cname, s.Domain+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, s.Domain); err == nil && len(ns) > 0 {
		s.HasNS = true
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		if s.HasNS {
			s.Class = DNSNoARecord
		} else if s.ResolverError != "" {
			s.Class = DNSServFail
		} else {
			s.Class = DNSNXDomain
		}
	}
	return s
}

// DNSChecker checks that the host's name resolves to at least one address.
type DNSChecker struct {
	Resolver *net.Resolver
	now      func() time.Time
}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{Resolver: net.DefaultResolver, now: time.Now}
}

func (d *DNSChecker) Check(ctx context.Context, req Request) Outcome {
	ctx, cancel := withTimeout(ctx, req.Timeout)
	defer cancel()

	start := d.now()
	s := CheckDNS(ctx, d.Resolver, hostOnly(req.Host))
	return dnsOutcome(s, d.now().Sub(start), req.Warning)
}

func dnsOutcome(s DNSStatus, elapsed, warning time.Duration) Outcome {
	switch s.Class {
	case DNSResolves:
		return classify(true, s.Class, elapsed, warning)
	case DNSServFail:
		return timedOut()
	default:
		return Outcome{Status: domain.StatusDown, Message: fmt.Sprintf("ERR (%s)", s.Class)}
	}
}
