package api

import (
	"time"

	"sampleapp/cmd/internal/auth/session"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type adminRequest struct {
	Admin *bool `json:"admin"`
}

type micropostRequest struct {
	Content string `json:"content"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type micropostResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type pageResponse struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

type signInPageResponse struct {
	Title string         `json:"title"`
	Flash *session.Flash `json:"flash"`
}

type userEnvelope struct {
	User  userResponse   `json:"user"`
	Flash *session.Flash `json:"flash,omitempty"`
}

type usersResponse struct {
	Users []userResponse `json:"users"`
	pageResponse
}

type profileResponse struct {
	User       userResponse        `json:"user"`
	Microposts []micropostResponse `json:"microposts"`
	pageResponse
}

type feedResponse struct {
	Microposts []micropostResponse `json:"microposts"`
	pageResponse
}

type micropostEnvelope struct {
	Micropost micropostResponse `json:"micropost"`
	Flash     *session.Flash    `json:"flash,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}
