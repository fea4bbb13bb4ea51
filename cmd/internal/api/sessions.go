package api

import (
	"net/http"

	"sampleapp/cmd/identity"
	"sampleapp/cmd/internal/metrics"
)

func (h *Handler) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	resp := signInPageResponse{Title: "Sign in"}
	if f, ok := h.sessions.PopFlash(w, r); ok {
		resp.Flash = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	ip := clientIP(r, h.cfg.TrustProxy)

	if ok, retryAfter := h.allowSignIn(ip, now); !ok {
		h.metrics.SignIn(metrics.SignInRateLimited)
		h.record(r, ActionSignInRateLimited, "", map[string]any{
			"retry_after_s": int64(retryAfter.Seconds()),
		})
		writeRateLimited(w, retryAfter)
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	email := identity.NormalizeEmail(req.Email)

	u, ok, err := h.auth.AuthenticateByPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error("auth.signin.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service unavailable")
		return
	}
	if !ok {
		h.metrics.SignIn(metrics.SignInFailed)
		h.record(r, ActionSignInFailed, "", map[string]any{"email": email})
		writeError(w, http.StatusUnauthorized, "invalid_credentials", MsgInvalidCredentials)
		return
	}

	if err := h.sessions.SignIn(w, r, u); err != nil {
		h.log.Error("auth.signin.cookie.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.metrics.SignIn(metrics.SignInSuccess)
	h.record(r, ActionSignInSuccess, u.ID, nil)
	h.log.Info("auth.signin.ok", "user_id", u.ID)

	w.Header().Set("Location", userPath(u.ID))
	writeJSON(w, http.StatusOK, userEnvelope{User: toUserResponse(u)})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	u, ok, err := h.sessions.CurrentIdentity(r)
	if err != nil {
		// Signing out must still clear the cookie.
		h.log.Warn("auth.signout.resolve.fail", "err", err)
	}

	h.sessions.SignOut(w, r)
	if ok {
		h.record(r, ActionSignOut, u.ID, nil)
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "signed_out"})
}
