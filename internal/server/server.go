// Package server provides the HTTP REST API for the tax document service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jayanthvn/taxmate/internal/conductor"
	"github.com/jayanthvn/taxmate/internal/config"
	"github.com/jayanthvn/taxmate/internal/db"
	"github.com/jayanthvn/taxmate/internal/documents"
	"github.com/jayanthvn/taxmate/internal/extraction"
	"github.com/jayanthvn/taxmate/internal/server/middleware"
	"github.com/jayanthvn/taxmate/internal/storage"
	"github.com/jayanthvn/taxmate/internal/workflow"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	docs        *documents.Service
	scanner     *extraction.GeminiScanner
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
}

// New creates a new server instance
func New(cfg *config.AppConfig) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	files, err := storage.NewCloudinaryStorage(storage.CloudinaryConfig{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file storage: %w", err)
	}

	s := &Server{db: database}

	// Direct AI extraction is optional; without a key the fallback
	// processor only produces synthetic workflows.
	var scanner workflow.Scanner
	if cfg.GeminiAPIKey != "" {
		geminiScanner, err := extraction.NewGeminiScanner(context.Background(), cfg.GeminiAPIKey, "")
		if err != nil {
			return nil, fmt.Errorf("failed to create extraction scanner: %w", err)
		}
		s.scanner = geminiScanner
		scanner = geminiScanner
	}

	registry := workflow.NewMemoryRegistry()
	fallback := workflow.NewProcessor(registry, scanner, nil)
	engine := conductor.New(conductor.Config{
		BaseURL:   cfg.ConductorURL,
		KeyID:     cfg.ConductorKeyID,
		KeySecret: cfg.ConductorKeySecret,
	}, fallback)

	s.docs = documents.NewService(database, files, engine)

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.userService = NewUserService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	auth := middleware.Auth(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /documents", auth(http.HandlerFunc(s.handleUploadDocument)))
	mux.Handle("GET /documents", auth(http.HandlerFunc(s.handleListDocuments)))
	mux.Handle("GET /documents/{id}", auth(http.HandlerFunc(s.handleGetDocument)))
	mux.Handle("DELETE /documents/{id}", auth(http.HandlerFunc(s.handleDeleteDocument)))
	mux.Handle("GET /workflows/{id}", auth(http.HandlerFunc(s.handleWorkflowStatus)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.scanner != nil {
		if err := s.scanner.Close(); err != nil {
			log.Printf("Error closing extraction scanner: %v", err)
		}
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
