package api

import (
	"net/http"

	"sampleapp/cmd/internal/auth/session"
	"sampleapp/cmd/internal/micropost"
)

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	n, limit, offset := h.page(r)
	posts, total, err := h.posts.Feed(r.Context(), u.ID, micropost.Page{Limit: limit, Offset: offset})
	if err != nil {
		h.writeStoreError(w, "microposts.feed", err)
		return
	}

	writeJSON(w, http.StatusOK, feedResponse{
		Microposts:   toMicropostResponses(posts),
		pageResponse: pageResponse{Page: n, PerPage: limit, Total: total},
	})
}

func (h *Handler) handleCreateMicropost(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req micropostRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	p, err := h.posts.Create(r.Context(), micropost.CreateInput{
		UserID:  u.ID,
		Content: req.Content,
		Now:     h.now(),
	})
	if err != nil {
		h.writeStoreError(w, "microposts.create", err)
		return
	}

	writeJSON(w, http.StatusCreated, micropostEnvelope{
		Micropost: toMicropostResponse(p),
		Flash:     &session.Flash{Kind: session.FlashSuccess, Message: MsgMicropostCreated},
	})
}

func (h *Handler) handleDeleteMicropost(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	p, err := h.posts.Delete(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		h.writeStoreError(w, "microposts.delete", err)
		return
	}

	writeJSON(w, http.StatusOK, micropostEnvelope{
		Micropost: toMicropostResponse(p),
		Flash:     &session.Flash{Kind: session.FlashSuccess, Message: MsgMicropostDeleted},
	})
}
