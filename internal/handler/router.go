package handler

import (
	"net/http"

	"wiki-annotator/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates the notes API router with CORS and request logging.
func NewRouter(
	authHandler *AuthHandler,
	noteHandler *NoteHandler,
	authMiddleware func(http.Handler) http.Handler,
	allowedOrigins []string,
	logger domain.Logger,
) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestLogger(logger))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"wiki-annotator"}`))
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware)

	api.HandleFunc("/auth/me", authHandler.GetProfile).Methods("GET")
	api.HandleFunc("/notes", noteHandler.ListNotes).Methods("GET")
	api.HandleFunc("/notes", noteHandler.CreateNote).Methods("POST")
	api.HandleFunc("/notes/page", noteHandler.ListPageNotes).Methods("GET")
	api.HandleFunc("/notes/by-page", noteHandler.ListNotesByPage).Methods("GET")
	api.HandleFunc("/notes/{id:[0-9]+}", noteHandler.UpdateNote).Methods("PUT")
	api.HandleFunc("/notes/{id:[0-9]+}", noteHandler.DeleteNote).Methods("DELETE")

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
