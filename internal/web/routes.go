package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	attendanceHandler := handlers.NewAttendanceHandler(s.config)
	configHandler := handlers.NewConfigHandler(s.config)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/attendance", attendanceHandler.List)
		r.Get("/attendance/{date}", attendanceHandler.Get)
		r.Get("/config", configHandler.Get)
	})

	s.router.Get("/", serveIndex)
}

// serveIndex serves a small landing page pointing at the API
func serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Attendance</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex; justify-content: center; align-items: center; height: 100vh; margin: 0; background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        a { color: #00d9ff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Attendance</h1>
        <p><a href="/api/v1/attendance">/api/v1/attendance</a> lists the recorded days.</p>
        <p><a href="/api/v1/health">/api/v1/health</a></p>
    </div>
</body>
</html>`))
}
