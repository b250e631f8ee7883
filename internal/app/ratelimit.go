package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterEntry is one client's token bucket
type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter holds one token bucket per client IP and forgets clients idle
// for longer than idleTTL
type ipLimiter struct {
	limiters     map[string]*limiterEntry
	limiterMutex sync.Mutex
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	now          func() time.Time
}

func newIPLimiter(rps float64, burst int, idleTTL time.Duration) *ipLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &ipLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// allow reports whether ip may make a request now
func (l *ipLimiter) allow(ip string) bool {
	now := l.now()

	l.limiterMutex.Lock()
	entry, exists := l.limiters[ip]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	l.limiterMutex.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// sweep drops clients not seen within idleTTL and returns how many it dropped
func (l *ipLimiter) sweep() int {
	cutoff := l.now().Add(-l.idleTTL)

	l.limiterMutex.Lock()
	defer l.limiterMutex.Unlock()

	dropped := 0
	for ip, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
			dropped++
		}
	}
	return dropped
}

func (l *ipLimiter) size() int {
	l.limiterMutex.Lock()
	defer l.limiterMutex.Unlock()
	return len(l.limiters)
}

// run sweeps idle clients until ctx is cancelled
func (l *ipLimiter) run(ctx context.Context) {
	ticker := time.NewTicker(l.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// proxyResolver finds the client address of a request. Forwarded headers are
// only read when the direct peer is a trusted proxy.
type proxyResolver struct {
	trusted []*net.IPNet
}

func newProxyResolver(cidrs []string) (*proxyResolver, error) {
	trusted := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		trusted = append(trusted, ipNet)
	}
	return &proxyResolver{trusted: trusted}, nil
}

func (p *proxyResolver) isTrusted(ip net.IP) bool {
	for _, ipNet := range p.trusted {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP returns the remote address, or, behind a trusted proxy, the
// right-most X-Forwarded-For hop that is not itself a trusted proxy
func (p *proxyResolver) clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	remote := net.ParseIP(host)
	if remote == nil || !p.isTrusted(remote) {
		return host
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			break
		}
		if !p.isTrusted(ip) {
			return ip.String()
		}
	}
	return host
}
