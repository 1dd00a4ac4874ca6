package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
	"golang.org/x/net/websocket"

	"bisca/internal/app"
	"bisca/internal/domain"
	"bisca/internal/hub"
	"bisca/internal/ports"
)

type playerIDContextKey struct{}

// NewHandler serves the game websocket at /game and a health check at /up.
func NewHandler(h *hub.Hub, identity ports.IdentityPort, logger runtime.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		serveConn(conn, h, logger)
	})

	mux.HandleFunc("/game", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		playerID, err := identity.Identify(r.Context(), tokenFromRequest(r))
		if err != nil || strings.TrimSpace(playerID) == "" {
			logger.Warn("websocket unauthorized: remote=%s err=%v", r.RemoteAddr, err)
			if err != nil && !errors.Is(err, ports.ErrUnauthenticated) {
				http.Error(w, "identity service unavailable", http.StatusServiceUnavailable)
				return
			}
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), playerIDContextKey{}, strings.TrimSpace(playerID))
		wsHandler.ServeHTTP(w, r.WithContext(ctx))
	})

	return mux
}

func serveConn(conn *websocket.Conn, h *hub.Hub, logger runtime.Logger) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := conn.Request().Context()
	playerID, _ := ctx.Value(playerIDContextKey{}).(string)
	t := newTransport(conn)

	err := h.Serve(ctx, playerID, t)
	if err != nil && domain.IsValidation(err) {
		// Seating was refused; tell the client why before hanging up.
		_ = t.Send(ctx, app.ErrorEvent(playerID, err))
		logger.Info("refused %s: %v", playerID, err)
	}
}

// tokenFromRequest reads the session token from the query string or a bearer header.
func tokenFromRequest(r *http.Request) string {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}
