package session

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"sampleapp/cmd/security/token"
)

// Flash kinds.
const (
	FlashNotice  = "notice"
	FlashError   = "error"
	FlashSuccess = "success"
)

// DeniedNotice is the message shown after DenyAccess redirects.
const DeniedNotice = "Please sign in to access this page."

// Flash is a one-shot message shown on the next rendered response.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash stores f for the next request.
func (m *Manager) SetFlash(w http.ResponseWriter, f Flash) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.FlashCookieName,
		Value:    payload + "." + token.HashHMACSHA256Hex(payload, m.flashKey),
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: m.cfg.CookieSameSite,
	})
}

// PopFlash returns the pending flash, if any, and clears it.
// A tampered or malformed cookie is cleared and ignored.
func (m *Manager) PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	c, err := r.Cookie(m.cfg.FlashCookieName)
	if err != nil {
		return Flash{}, false
	}
	m.expireCookie(w, m.cfg.FlashCookieName)

	f, err := m.decodeFlash(c.Value)
	if err != nil {
		m.log.Debug("session.flash.invalid", "err", err)
		return Flash{}, false
	}
	return f, true
}

func (m *Manager) decodeFlash(v string) (Flash, error) {
	payload, mac, ok := strings.Cut(v, ".")
	if !ok || payload == "" {
		return Flash{}, ErrInvalidFlash
	}
	want := token.HashHMACSHA256Hex(payload, m.flashKey)
	if !hmac.Equal([]byte(mac), []byte(want)) {
		return Flash{}, ErrInvalidFlash
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Flash{}, ErrInvalidFlash
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return Flash{}, ErrInvalidFlash
	}
	return f, nil
}
