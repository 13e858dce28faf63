package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/services"
)

type SessionHandler struct {
	sessions *services.SessionManager
	logger   *zap.Logger
}

func NewSessionHandler(sessions *services.SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

type createSessionRequest struct {
	Title string `json:"title"`
}

type createSessionResponse struct {
	GUID         string `json:"guid"`
	Title        string `json:"title"`
	UploadURL    string `json:"uploadUrl"`
	UploadToken  string `json:"uploadToken"`
	TokenExpires string `json:"tokenExpires"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}

	res, err := h.sessions.CreateSession(r.Context(), req.Title)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, createSessionResponse{
		GUID:         res.VideoID,
		Title:        res.Title,
		UploadURL:    res.UploadURL,
		UploadToken:  res.Token,
		TokenExpires: res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type UploadProxyHandler struct {
	proxy  *services.UploadProxy
	logger *zap.Logger
}

func NewUploadProxyHandler(proxy *services.UploadProxy, logger *zap.Logger) *UploadProxyHandler {
	return &UploadProxyHandler{proxy: proxy, logger: logger}
}

func (h *UploadProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// the body is streamed straight to the provider; nothing is buffered here
	defer r.Body.Close()

	resp, err := h.proxy.ProxyUpload(r.Context(), services.ProxyUploadRequest{
		Token:         r.Header.Get(TokenHeader),
		VideoID:       r.PathValue("videoId"),
		Body:          r.Body,
		Header:        r.Header,
		ContentLength: r.ContentLength,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
