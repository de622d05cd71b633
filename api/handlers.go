package api

import (
	"context"
	"net/http"

	"github.com/creativeprojects/webmail/dispatch"
	"github.com/creativeprojects/webmail/mailbox"
	"github.com/creativeprojects/webmail/profile"
	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type listRequest struct {
	Folder string `json:"box"`
	Page   *int   `json:"page"`
	Limit  *int   `json:"limit"`
}

type messageRequest struct {
	Folder string `json:"box"`
	Uid    uint32 `json:"uid" validate:"required"`
}

type searchRequest struct {
	Folder string `json:"box"`
	Query  string `json:"query"`
}

type sendRequest struct {
	To          dispatch.Recipients  `json:"to" validate:"required"`
	Subject     string               `json:"subject" validate:"required"`
	Text        string               `json:"text" validate:"required_without=HTML"`
	HTML        string               `json:"html" validate:"required_without=Text"`
	Attachments []mailbox.Attachment `json:"attachments"`
}

type profileRequest struct {
	DisplayName     string `json:"name"`
	Signature       string `json:"signature"`
	RecoveryAddress string `json:"recoveryAddress" validate:"omitempty,email"`
}

type avatarRequest struct {
	Avatar      string `json:"avatar"`
	DisplayName string `json:"name"`
}

const (
	defaultPage  = 1
	defaultLimit = 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	credentials := mailbox.Credentials{Address: req.Email, Secret: req.Password}
	account, err := s.gateway.Login(r.Context(), credentials)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	session := s.sessions.create(credentials, account.DisplayName)
	s.setSessionCookie(w, session)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "logged in",
		"email":   account.Address,
		"name":    account.DisplayName,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.remove(callerFrom(r.Context()).token)
	s.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	page, limit := defaultPage, defaultLimit
	if req.Page != nil {
		page = *req.Page
	}
	if req.Limit != nil {
		limit = *req.Limit
	}
	result, err := s.gateway.ListMessages(r.Context(), callerFrom(r.Context()).credentials, req.Folder, page, limit)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"emails": result.Messages,
		"total":  result.Total,
	})
}

func (s *Server) handleMessageBody(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	body, err := s.gateway.GetMessageBody(r.Context(), callerFrom(r.Context()).credentials, req.Folder, req.Uid)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"html":        body.HTML,
		"text":        body.Text,
		"attachments": body.Attachments,
		"from":        body.From,
		"email":       body.Email,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, "message deleted", s.gateway.DeleteMessage)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, "message archived", s.gateway.ArchiveMessage)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, "message marked as read", s.gateway.MarkRead)
}

func (s *Server) handleMarkUnread(w http.ResponseWriter, r *http.Request) {
	s.handleMutation(w, r, "message marked as unread", s.gateway.MarkUnread)
}

type mutation func(ctx context.Context, credentials mailbox.Credentials, folder string, uid uint32) error

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request, message string, mutate mutation) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	if err := mutate(r.Context(), callerFrom(r.Context()).credentials, req.Folder, req.Uid); err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": message})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	result, err := s.gateway.SearchMessages(r.Context(), callerFrom(r.Context()).credentials, req.Folder, req.Query)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"emails": result.Messages,
		"total":  result.Total,
	})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	receipt, err := s.gateway.SendMessage(r.Context(), callerFrom(r.Context()).credentials, dispatch.Request{
		Recipients:  req.To,
		Subject:     req.Subject,
		Text:        req.Text,
		HTML:        req.HTML,
		Attachments: req.Attachments,
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"messageId":  receipt.MessageID,
		"recipients": receipt.Recipients,
	})
}

func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.gateway.ListFolders(r.Context(), callerFrom(r.Context()).credentials)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"folders": folders})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	view, err := s.gateway.Profile(callerFrom(r.Context()).credentials.Address)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"email":           view.Address,
		"name":            view.DisplayName,
		"signature":       view.Signature,
		"recoveryAddress": view.RecoveryAddress,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	err := s.gateway.UpdateProfile(callerFrom(r.Context()).credentials.Address, profile.Profile{
		DisplayName:     req.DisplayName,
		Signature:       req.Signature,
		RecoveryAddress: req.RecoveryAddress,
	})
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "profile saved"})
}

func (s *Server) handleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	var req avatarRequest
	if err := s.decode(r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	err := s.gateway.UpdateAvatar(callerFrom(r.Context()).credentials.Address, req.Avatar, req.DisplayName)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"message": "avatar saved"})
}

// handleAvatar is public: the avatar of any address can be shown next to its messages
func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	avatar, err := s.gateway.Avatar(chi.URLParam(r, "email"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	var value any
	if avatar != "" {
		value = avatar
	}
	respondJSON(w, http.StatusOK, map[string]any{"avatar": value})
}
