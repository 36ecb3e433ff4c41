package server

import (
	"context"
	"net/http"

	"tailscale.com/client/tailscale"
)

// UserInfo identifies the athlete behind a request.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

type contextKey string

const userInfoKey contextKey = "userInfo"

// WhoisFunc resolves the identity behind a remote address.
type WhoisFunc func(ctx context.Context, remoteAddr string) (UserInfo, bool)

// SetTailscale wires the tsnet local client so the identity middleware can
// resolve Tailscale users.
func (s *Server) SetTailscale(lc *tailscale.LocalClient) {
	s.whois = func(ctx context.Context, remoteAddr string) (UserInfo, bool) {
		who, err := lc.WhoIs(ctx, remoteAddr)
		if err != nil || who.UserProfile == nil {
			return UserInfo{}, false
		}
		return UserInfo{
			Login:       who.UserProfile.LoginName,
			DisplayName: who.UserProfile.DisplayName,
		}, true
	}
}

// identity stores the requesting user in the context: the Tailscale identity
// when a whois resolver is wired, the dev identity otherwise.
func (s *Server) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := UserInfo{Login: "local", DisplayName: "Local Dev User"}
		if s.whois != nil {
			if resolved, ok := s.whois(r.Context(), r.RemoteAddr); ok {
				info = resolved
			}
		}
		ctx := context.WithValue(r.Context(), userInfoKey, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userInfoFromContext returns the identity set by the middleware, or the dev
// identity when none is present.
func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return UserInfo{Login: "local", DisplayName: "Local Dev User"}
}
