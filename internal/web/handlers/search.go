package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/simpleemail/simpleemail/internal/search"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
	"github.com/simpleemail/simpleemail/internal/web/render"
)

// SearchHandler serves the search results page.
type SearchHandler struct {
	searches      *search.Service
	render        *render.Renderer
	secureCookies bool
}

func NewSearchHandler(searches *search.Service, renderer *render.Renderer, secureCookies bool) *SearchHandler {
	return &SearchHandler{
		searches:      searches,
		render:        renderer,
		secureCookies: secureCookies,
	}
}

func (h *SearchHandler) ShowResults(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	query := r.URL.Query().Get("query")
	results, err := h.searches.Search(r.Context(), user, query)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			setFlashError(w, "Search query must not be empty.", h.secureCookies)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		slog.Error("search failed", "user_id", user.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.render.Render(w, r, "search.html", map[string]interface{}{
		"User":     user,
		"Query":    query,
		"Messages": search.Sorted(results),
	})
}
