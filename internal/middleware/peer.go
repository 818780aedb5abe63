package middleware

import (
	"context"
	"net/http"
)

const peerAddrKey ctxKey = iota + 1

// PeerAddr records the socket address of the connection. Mount it before any
// middleware that rewrites RemoteAddr from forwarding headers.
func PeerAddr(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), peerAddrKey, r.RemoteAddr)))
	})
}

// GetPeerAddr returns the address saved by PeerAddr, falling back to r.RemoteAddr.
func GetPeerAddr(r *http.Request) string {
	if addr, ok := r.Context().Value(peerAddrKey).(string); ok && addr != "" {
		return addr
	}
	return r.RemoteAddr
}
