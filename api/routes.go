package api

import (
	"net/http"
	"regexp"
	"strings"
)

func cleanOrigin(origin string) string {
	cleanedOrigin := strings.TrimPrefix(origin, "https://")
	cleanedOrigin = strings.TrimPrefix(cleanedOrigin, "wss://")
	if idx := strings.Index(cleanedOrigin, "/"); idx != -1 {
		cleanedOrigin = cleanedOrigin[:idx]
	}
	return cleanedOrigin
}

func isAllowedOrigin(origin string, allowedOrigins []string) bool {
	cleanedRequest := cleanOrigin(origin)

	// Allow localhost for development
	localhostPattern := regexp.MustCompile(`^localhost:\d+$`)
	if localhostPattern.MatchString(cleanedRequest) {
		return true
	}

	// Check against configured allowed origins
	for _, allowed := range allowedOrigins {
		cleanedAllowed := cleanOrigin(allowed)
		if cleanedAllowed == cleanedRequest {
			return true
		}
	}

	return false
}

func wrapMuxWithCorsAndOrigins(mux *http.ServeMux, app *Application) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == "" {
			referer := r.Header.Get("Referer")
			if referer != "" {
				origin = referer
			}
		}

		if origin == "" {
			handleCors(mux.ServeHTTP)(w, r)
			return
		}

		// Check if origin is allowed
		if isAllowedOrigin(origin, app.Config.AllowedOrigins) {
			handleCors(mux.ServeHTTP)(w, r)
			return
		}

		w.WriteHeader(403)
		w.Write([]byte("origin not allowed: " + cleanOrigin(origin)))
	})
}

func (app *Application) BuildRoutes(mux *http.ServeMux) *http.ServeMux {
	finalMux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("/", app.home)
	mux.HandleFunc("/v1/auth/signup", app.signup)
	mux.HandleFunc("/v1/auth/login", app.login)
	mux.HandleFunc("/v1/leaderboard", app.getLeaderboard)
	mux.HandleFunc("/v1/catalog/achievements", app.getCatalog)

	// Authenticated endpoints
	mux.HandleFunc("/v1/auth/logout", app.authenticate(app.logout))
	mux.HandleFunc("/v1/users/me", app.authenticate(app.getCurrentUser))
	mux.HandleFunc("/v1/users/me/update", app.authenticate(app.updateCurrentUser))
	mux.HandleFunc("/v1/friends", app.authenticate(app.getFriends))
	mux.HandleFunc("/v1/friends/requests", app.authenticate(app.getFriendRequests))
	mux.HandleFunc("/v1/friends/search", app.authenticate(app.searchFriends))
	mux.HandleFunc("/v1/friends/request", app.authenticate(app.sendFriendRequest))
	mux.HandleFunc("/v1/friends/accept", app.authenticate(app.acceptFriendRequest))
	mux.HandleFunc("/v1/friends/reject", app.authenticate(app.rejectFriendRequest))
	mux.HandleFunc("/v1/friends/profile", app.authenticate(app.getFriendProfile))
	mux.HandleFunc("/v1/progress", app.authenticate(app.getProgress))
	mux.HandleFunc("/v1/progress/save", app.authenticate(app.saveProgress))
	mux.HandleFunc("/v1/progress/sync", app.authenticate(app.syncProgress))
	mux.HandleFunc("/v1/progress/import", app.authenticate(app.importProgress))

	// Admin endpoints
	mux.HandleFunc("/v1/admin/backup", app.verifyPermissions(app.backupAllUsers))

	// Wrap entire mux with CORS and origins check
	finalMux.Handle("/", wrapMuxWithCorsAndOrigins(mux, app))

	return finalMux
}
