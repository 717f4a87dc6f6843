package middleware

import (
	"context"
	"net/http"
	"net/netip"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/petlife-licenser/pkg/logger"
)

const (
	requestIDHeader    = "X-Request-Id"
	forwardedForHeader = "X-Forwarded-For"
	realIPHeader       = "X-Real-IP"
	maxRequestIDLength = 128
)

// RequestID echoes the caller's X-Request-Id or mints one, and tags the request logs with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if reqID == "" || len(reqID) > maxRequestIDLength {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientAddress resolves the caller address once per request. Forwarding headers are only
// read when the socket peer is one of the trusted proxies.
func ClientAddress(trusted []netip.Prefix, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, trusted)
			ctx := context.WithValue(r.Context(), ctxClientIP, ip)
			if logg != nil {
				ctx = logg.WithField(ctx, "client_ip", ip)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the address resolved by ClientAddress, or the socket peer when the
// middleware did not run.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := stringFromContext(r.Context(), ctxClientIP); ip != "" {
		return ip
	}
	return resolveClientIP(r, nil)
}

func resolveClientIP(r *http.Request, trusted []netip.Prefix) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	if header := r.Header.Get(forwardedForHeader); header != "" {
		// walk right to left; the first hop not owned by us is the caller
		hops := strings.Split(header, ",")
		caller := peer
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			caller = addr.Unmap()
			if !isTrusted(caller, trusted) {
				break
			}
		}
		return caller.String()
	}

	if addr, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get(realIPHeader))); err == nil {
		return addr.Unmap().String()
	}
	return peer.String()
}

func peerAddr(remote string) (netip.Addr, bool) {
	remote = strings.TrimSpace(remote)
	if addrPort, err := netip.ParseAddrPort(remote); err == nil {
		return addrPort.Addr().Unmap(), true
	}
	if addr, err := netip.ParseAddr(remote); err == nil {
		return addr.Unmap(), true
	}
	return netip.Addr{}, false
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
