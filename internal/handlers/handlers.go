package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"willr/internal/auth"
	"willr/internal/store"
)

type Handler struct {
	store    *store.Store
	sessions *auth.Manager
	tpls     *template.Template
}

func New(st *store.Store, sessions *auth.Manager, tplDir string) *Handler {
	tpls := template.Must(template.ParseGlob(filepath.Join(tplDir, "*.html")))
	return &Handler{store: st, sessions: sessions, tpls: tpls}
}

// render executes a named template, always exposing the logged-in
// user under "User".
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["User"] = currentUser(r)
	if err := h.tpls.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
	}
}

// -------- Auth pages

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "register", map[string]any{"Title": "Register", "Username": ""})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	var msg string
	switch {
	case username == "":
		msg = store.ErrUsernameRequired.Error()
	case password == "":
		msg = store.ErrPasswordRequired.Error()
	default:
		hash, err := auth.HashPassword(password)
		if err != nil {
			http.Error(w, "hash error", http.StatusInternalServerError)
			return
		}
		_, err = h.store.CreateUser(r.Context(), username, hash)
		var taken *store.UsernameTakenError
		switch {
		case errors.As(err, &taken):
			msg = taken.Error()
		case err != nil:
			http.Error(w, "DB error", http.StatusInternalServerError)
			return
		default:
			// Registration does not log the user in.
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
	}

	h.render(w, r, "register", map[string]any{
		"Title":    "Register",
		"Error":    msg,
		"Username": username,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "login", map[string]any{"Title": "Log In", "Username": ""})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	var msg string
	user, err := h.store.UserByName(r.Context(), username)
	var notFound *store.UserNotFoundError
	switch {
	case errors.As(err, &notFound):
		msg = notFound.Error()
	case err != nil:
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	case !auth.CheckPassword(password, user.Password):
		msg = store.ErrInvalidPassword.Error()
	default:
		if err := h.sessions.Create(w, user.ID); err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	h.render(w, r, "login", map[string]any{
		"Title":    "Log In",
		"Error":    msg,
		"Username": username,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Destroy(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// -------- Blog pages

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context())
	if err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "index", map[string]any{
		"Title": "Posts",
		"Posts": posts,
	})
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "create", map[string]any{"Title": "New Post", "Body": ""})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	body := r.FormValue("body")

	if title == "" {
		h.render(w, r, "create", map[string]any{
			"Title": "New Post",
			"Error": store.ErrTitleRequired.Error(),
			"Body":  body,
		})
		return
	}

	if _, err := h.store.CreatePost(r.Context(), title, body, currentUser(r).ID); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	post, err := h.store.PostByID(r.Context(), id, currentUser(r).ID, true)
	if err != nil {
		h.postFault(w, err)
		return
	}

	if r.Method == http.MethodGet {
		h.render(w, r, "update", map[string]any{
			"Title": "Edit \"" + post.Title + "\"",
			"Post":  post,
		})
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	body := r.FormValue("body")

	if title == "" {
		post.Body = body
		h.render(w, r, "update", map[string]any{
			"Title": "Edit \"" + post.Title + "\"",
			"Error": store.ErrTitleRequired.Error(),
			"Post":  post,
		})
		return
	}

	if err := h.store.UpdatePost(r.Context(), id, title, body); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	// Ownership check only; the row itself is not needed.
	if _, err := h.store.PostByID(r.Context(), id, currentUser(r).ID, true); err != nil {
		h.postFault(w, err)
		return
	}
	if err := h.store.DeletePost(r.Context(), id); err != nil {
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Hi(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<h1>Hello from Willr!</h1>"))
}

// postID parses the {id} URL parameter; a malformed id is a 404.
func postID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// postFault maps PostByID failures to their terminal status codes.
func (h *Handler) postFault(w http.ResponseWriter, err error) {
	var notFound *store.PostNotFoundError
	switch {
	case errors.As(err, &notFound):
		http.Error(w, notFound.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "DB error", http.StatusInternalServerError)
	}
}
