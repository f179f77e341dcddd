package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - question answering
	mux.HandleFunc("/api/ask", s.app.AskHandler.AskHandler)
	mux.HandleFunc("/api/ask/stream", s.app.AskHandler.StreamHandler)

	// API routes - retrieval inspection
	mux.HandleFunc("/api/search", s.app.SearchHandler.SearchHandler)

	// API routes - service status
	mux.HandleFunc("/api/status", s.app.StatusHandler.StatusHandler)

	return mux
}
