package api

import (
	"net/http"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/identity/ids"
	"sampleapp/cmd/internal/auth/session"
	"sampleapp/cmd/internal/micropost"
)

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.users.CreateUser(r.Context(), identity.CreateUserInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Now:                  h.now(),
	})
	if err != nil {
		h.writeStoreError(w, "users.create", err)
		return
	}

	if err := h.sessions.SignIn(w, r, u); err != nil {
		h.log.Error("users.create.signin.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	h.record(r, ActionUserCreated, u.ID, nil)

	w.Header().Set("Location", userPath(u.ID))
	writeJSON(w, http.StatusCreated, userEnvelope{
		User:  toUserResponse(u),
		Flash: &session.Flash{Kind: session.FlashSuccess, Message: MsgWelcome},
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	n, limit, offset := h.page(r)

	users, err := h.users.ListUsers(r.Context(), identity.ListUsersInput{Limit: limit, Offset: offset})
	if err != nil {
		h.writeStoreError(w, "users.list", err)
		return
	}
	total, err := h.users.CountUsers(r.Context())
	if err != nil {
		h.writeStoreError(w, "users.count", err)
		return
	}

	writeJSON(w, http.StatusOK, usersResponse{
		Users:        toUserResponses(users),
		pageResponse: pageResponse{Page: n, PerPage: limit, Total: total},
	})
}

func (h *Handler) handleShowUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !ids.Valid(id) {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	u, ok, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "users.show", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	n, limit, offset := h.page(r)
	posts, total, err := h.posts.ListByUser(r.Context(), u.ID, micropost.Page{Limit: limit, Offset: offset})
	if err != nil {
		h.writeStoreError(w, "users.show.microposts", err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		User:         toUserResponse(u),
		Microposts:   toMicropostResponses(posts),
		pageResponse: pageResponse{Page: n, PerPage: limit, Total: total},
	})
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id != current.ID {
		writeError(w, http.StatusForbidden, "forbidden", "you can only edit your own profile")
		return
	}

	var req userRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	u, err := h.users.UpdateUser(r.Context(), identity.UpdateUserInput{
		ID:                   id,
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		Now:                  h.now(),
	})
	if err != nil {
		h.writeStoreError(w, "users.update", err)
		return
	}

	writeJSON(w, http.StatusOK, userEnvelope{
		User:  toUserResponse(u),
		Flash: &session.Flash{Kind: session.FlashSuccess, Message: MsgProfileUpdated},
	})
}

func (h *Handler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !current.Admin {
		writeError(w, http.StatusForbidden, "forbidden", "admin only")
		return
	}
	id := r.PathValue("id")
	if id == current.ID {
		writeError(w, http.StatusForbidden, "forbidden", "admins cannot delete themselves")
		return
	}

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		h.writeStoreError(w, "users.delete", err)
		return
	}
	h.record(r, ActionUserDeleted, current.ID, map[string]any{"target_user_id": id})

	writeJSON(w, http.StatusOK, struct {
		Status string        `json:"status"`
		Flash  session.Flash `json:"flash"`
	}{
		Status: "deleted",
		Flash:  session.Flash{Kind: session.FlashSuccess, Message: MsgUserDeleted},
	})
}

func (h *Handler) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	if !current.Admin {
		writeError(w, http.StatusForbidden, "forbidden", "admin only")
		return
	}

	var req adminRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil || req.Admin == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "admin is required")
		return
	}

	u, err := h.users.SetAdmin(r.Context(), r.PathValue("id"), *req.Admin, h.now())
	if err != nil {
		h.writeStoreError(w, "users.set_admin", err)
		return
	}
	h.record(r, ActionUserAdminChanged, current.ID, map[string]any{
		"target_user_id": u.ID,
		"admin":          u.Admin,
	})

	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(u)})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(u)})
}
