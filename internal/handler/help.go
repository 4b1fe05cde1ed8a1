package handler

import (
	"net/http"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

func (h *Handler) GetHelpPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.repository.GetHelpPosts()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched help posts", posts)
}

func (h *Handler) CreateHelpPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content" validate:"required,max=10000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	post := &domain.HelpPost{Content: req.Content}
	if err := h.repository.CreateHelpPost(post); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Help post created", post)
}
