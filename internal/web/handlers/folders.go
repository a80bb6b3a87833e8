package handlers

import (
	"log/slog"
	"net/http"

	"github.com/simpleemail/simpleemail/internal/folder"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
	"github.com/simpleemail/simpleemail/internal/web/render"
)

// FolderHandler serves the inbox and outbox views.
type FolderHandler struct {
	folders       *folder.Service
	render        *render.Renderer
	secureCookies bool
}

func NewFolderHandler(folders *folder.Service, renderer *render.Renderer, secureCookies bool) *FolderHandler {
	return &FolderHandler{
		folders:       folders,
		render:        renderer,
		secureCookies: secureCookies,
	}
}

func (h *FolderHandler) ShowInbox(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	views, err := h.folders.Inbox(r.Context(), user)
	if err != nil {
		slog.Error("failed to list inbox", "user_id", user.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"User":     user,
		"Folder":   "inbox",
		"Messages": views,
	}
	if msg, msgType := consumeFlash(w, r, h.secureCookies); msg != "" {
		data["Flash"] = msg
		data["FlashType"] = msgType
	}
	h.render.Render(w, r, "folder.html", data)
}

func (h *FolderHandler) ShowOutbox(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	views, err := h.folders.Outbox(r.Context(), user)
	if err != nil {
		slog.Error("failed to list outbox", "user_id", user.ID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"User":     user,
		"Folder":   "outbox",
		"Messages": views,
	}
	if msg, msgType := consumeFlash(w, r, h.secureCookies); msg != "" {
		data["Flash"] = msg
		data["FlashType"] = msgType
	}
	h.render.Render(w, r, "folder.html", data)
}
