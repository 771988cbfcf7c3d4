package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"willr/internal/auth"
	"willr/internal/config"
	"willr/internal/db"
	"willr/internal/handlers"
	"willr/internal/store"
)

func main() {
	cfg := config.Load()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatal(err)
		}
	}

	dbc, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	defer dbc.Close()

	if err := db.Migrate(dbc); err != nil {
		log.Fatal(err)
	}

	st := store.New(dbc)
	sessions := auth.NewManager(dbc, []byte(cfg.SecretKey), cfg.SessionTTL)
	h := handlers.New(st, sessions, cfg.TemplatesDir)

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(h.WithUser)

	fs := http.FileServer(http.Dir(cfg.StaticDir))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))

	r.Get("/", h.Index)
	r.Get("/hi", h.Hi)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/register", h.Register)
		r.Post("/register", h.Register)
		r.Get("/login", h.Login)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)
	})

	r.Get("/create", h.RequireAuth(h.CreatePost))
	r.Post("/create", h.RequireAuth(h.CreatePost))
	r.Get("/{id}/update", h.RequireAuth(h.UpdatePost))
	r.Post("/{id}/update", h.RequireAuth(h.UpdatePost))
	r.Post("/{id}/delete", h.RequireAuth(h.DeletePost))

	log.Printf("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
