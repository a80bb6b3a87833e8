package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/simpleemail/simpleemail/internal/message"
	"github.com/simpleemail/simpleemail/internal/web/middleware"
	"github.com/simpleemail/simpleemail/internal/web/render"
)

// maxComposeMemory bounds the in-memory portion of multipart parsing.
const maxComposeMemory = 32 << 20 // 32 MiB

// ComposeHandler serves the compose and forward forms and their submissions.
type ComposeHandler struct {
	messages      *message.Service
	render        *render.Renderer
	secureCookies bool
}

func NewComposeHandler(messages *message.Service, renderer *render.Renderer, secureCookies bool) *ComposeHandler {
	return &ComposeHandler{
		messages:      messages,
		render:        renderer,
		secureCookies: secureCookies,
	}
}

// ShowCompose renders the empty compose form.
func (h *ComposeHandler) ShowCompose(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := map[string]interface{}{
		"User":    user,
		"Forward": false,
	}
	if msg, msgType := consumeFlash(w, r, h.secureCookies); msg != "" {
		data["Flash"] = msg
		data["FlashType"] = msgType
	}
	h.render.Render(w, r, "compose.html", data)
}

// ShowForward renders the compose form pre-filled from an existing message
// the user participates in.
func (h *ComposeHandler) ShowForward(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	messageID, ok := parseUUIDParam(w, r, "messageID")
	if !ok {
		return
	}

	prefill, err := h.messages.ForwardPrefill(r.Context(), user, messageID)
	if err != nil {
		if errors.Is(err, message.ErrNotFound) || errors.Is(err, message.ErrNotParticipant) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to build forward prefill", "message_id", messageID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"User":    user,
		"Forward": true,
		"Prefill": prefill,
	}
	if msg, msgType := consumeFlash(w, r, h.secureCookies); msg != "" {
		data["Flash"] = msg
		data["FlashType"] = msgType
	}
	h.render.Render(w, r, "compose.html", data)
}

// HandleCompose processes a compose or forward submission. Validation errors
// flash back to the form; nothing is persisted on failure.
func (h *ComposeHandler) HandleCompose(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, false)
}

// HandleForward is HandleCompose with the forward flag set on the created
// participation records.
func (h *ComposeHandler) HandleForward(w http.ResponseWriter, r *http.Request) {
	h.handleSubmit(w, r, true)
}

func (h *ComposeHandler) handleSubmit(w http.ResponseWriter, r *http.Request, isForward bool) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	formPath := "/compose"
	if isForward {
		formPath = "/forward"
	}

	if err := r.ParseMultipartForm(maxComposeMemory); err != nil {
		setFlashError(w, "Invalid form data.", h.secureCookies)
		http.Redirect(w, r, formPath, http.StatusSeeOther)
		return
	}

	files, err := readUploads(r)
	if err != nil {
		setFlashError(w, "Failed to read attachments.", h.secureCookies)
		http.Redirect(w, r, formPath, http.StatusSeeOther)
		return
	}

	req := message.ComposeRequest{
		SenderEmail: user.Email,
		To:          r.FormValue("to"),
		Subject:     r.FormValue("subject"),
		Body:        r.FormValue("body"),
		IsDraft:     r.FormValue("draft") == "on",
		IsForward:   isForward,
		Files:       files,
	}

	if _, err := h.messages.Compose(r.Context(), req); err != nil {
		var unknown *message.UnknownRecipientError
		switch {
		case errors.Is(err, message.ErrEmptySubject):
			setFlashError(w, "Subject must not be empty.", h.secureCookies)
		case errors.Is(err, message.ErrNoRecipients):
			setFlashError(w, "At least one recipient is required.", h.secureCookies)
		case errors.As(err, &unknown):
			setFlashError(w, fmt.Sprintf("Unknown recipient: %s", unknown.Address), h.secureCookies)
		case errors.Is(err, message.ErrInvalidSender):
			setFlashError(w, "Sender is not a registered user.", h.secureCookies)
		default:
			slog.Error("failed to compose message", "user_id", user.ID, "error", err)
			setFlashError(w, "Failed to send message.", h.secureCookies)
		}
		http.Redirect(w, r, formPath, http.StatusSeeOther)
		return
	}

	if req.IsDraft {
		setFlashSuccess(w, "Draft saved.", h.secureCookies)
	} else {
		setFlashSuccess(w, "Message sent!", h.secureCookies)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func readUploads(r *http.Request) ([]message.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	var files []message.File
	for _, header := range r.MultipartForm.File["attachments"] {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, message.File{Name: header.Filename, Data: data})
	}
	return files, nil
}
