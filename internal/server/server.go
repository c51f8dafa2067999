package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"alamedalearn/internal/app"
	"alamedalearn/internal/sanitize"
	"alamedalearn/internal/session"
	"alamedalearn/internal/util"
	"alamedalearn/pkg/content"
	"alamedalearn/pkg/domain"
)

// Limiter gates request rates per key. Nil limiters allow everything.
type Limiter interface {
	Allow(key string) bool
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	TokenVerifier  *session.Verifier
	CommentLimiter Limiter
	UploadLimiter  Limiter
	MaxUploadBytes int64
}

// Server exposes HTTP endpoints for the content service.
type Server struct {
	app            *app.App
	store          *content.Store
	tokenVerifier  *session.Verifier
	commentLimiter Limiter
	uploadLimiter  Limiter
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	if cfg.TokenVerifier == nil {
		return nil, errors.New("token verifier required")
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 500 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		store:          cfg.App.Store(),
		tokenVerifier:  cfg.TokenVerifier,
		commentLimiter: cfg.CommentLimiter,
		uploadLimiter:  cfg.UploadLimiter,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("content", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// videos
	s.mux.HandleFunc("/videos", s.handleVideos)
	s.mux.HandleFunc("/videos/", s.handleVideoByID)

	// tutors
	s.mux.HandleFunc("/tutors/", s.handleTutorByID)

	// current user
	s.mux.Handle("/me/history", s.withUser(s.handleHistory))
	s.mux.Handle("/me/feed", s.withUser(s.handleFeed))

	// admin catalog
	s.mux.HandleFunc("/grades", s.handleGrades)
	s.mux.HandleFunc("/grades/", s.handleGradeByID)
	s.mux.HandleFunc("/courses", s.handleCourses)
	s.mux.HandleFunc("/courses/", s.handleCourseByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userHandler func(http.ResponseWriter, *http.Request, domain.Identity)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		next(w, r, user)
	})
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	token, ok := session.BearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Identity{}, false
	}
	user, err := s.tokenVerifier.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Identity{}, false
	}
	return user, true
}

func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, role domain.Role) (domain.Identity, bool) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return domain.Identity{}, false
	}
	if user.Role != role && user.Role != domain.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden")
		return domain.Identity{}, false
	}
	return user, true
}

// respondMutation maps store errors onto HTTP semantics. A durability warning
// means the mutation took effect in memory, so the request still succeeds.
func respondMutation(w http.ResponseWriter, r *http.Request, status int, payload any, err error) {
	if err != nil {
		if content.IsDurabilityWarning(err) {
			util.LoggerFromContext(r.Context()).Warn("mutation not persisted", "error", err)
		} else {
			var verr *content.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	writeJSON(w, status, payload)
}

// GET /videos?q=&category=  |  POST /videos
func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query().Get("q")
		category := r.URL.Query().Get("category")
		videos := s.store.Search(q, category)
		writeJSON(w, http.StatusOK, map[string]any{
			"items": videos,
			"count": len(videos),
		})
	case http.MethodPost:
		s.handleUploadVideo(w, r)
	default:
		methodNotAllowed(w)
	}
}

type uploadVideoRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Duration     int      `json:"duration"`
	Tags         []string `json:"tags"`
	VideoURL     string   `json:"videoUrl"`
	ThumbnailURL string   `json:"thumbnailUrl"`
}

func (s *Server) handleUploadVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, domain.RoleTutor)
	if !ok {
		return
	}
	if s.uploadLimiter != nil && !s.uploadLimiter.Allow("upload:"+user.UserID) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	in := app.UploadInput{}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if s.maxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		in.Title = r.FormValue("title")
		in.Description = r.FormValue("description")
		in.Category = r.FormValue("category")
		in.Duration = atoiOrZero(r.FormValue("duration"))
		in.ThumbnailURL = r.FormValue("thumbnailUrl")
		in.VideoURL = r.FormValue("videoUrl")
		if tags := strings.TrimSpace(r.FormValue("tags")); tags != "" {
			for _, tag := range strings.Split(tags, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					in.Tags = append(in.Tags, tag)
				}
			}
		}
		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			in.File = file
			in.Filename = header.Filename
			in.Size = header.Size
		}
	} else {
		var req uploadVideoRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in = app.UploadInput{
			Title:        req.Title,
			Description:  req.Description,
			Category:     req.Category,
			Duration:     req.Duration,
			Tags:         req.Tags,
			VideoURL:     req.VideoURL,
			ThumbnailURL: req.ThumbnailURL,
		}
	}

	video, err := s.app.UploadVideo(r.Context(), user, in)
	respondMutation(w, r, http.StatusCreated, video, err)
}

// /videos/{id} plus comments, like, liked, watch, progress subresources.
func (s *Server) handleVideoByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/videos/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	video, ok := s.store.VideoByID(id)
	if !ok {
		notFound(w, "video not found")
		return
	}

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, video)
		return
	}

	switch parts[1] {
	case "comments":
		s.handleComments(w, r, id)
	case "like":
		s.handleLike(w, r, id)
	case "liked":
		s.handleLiked(w, r, id)
	case "watch":
		s.handleWatch(w, r, id)
	case "progress":
		s.handleProgress(w, r, id)
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request, videoID string) {
	switch r.Method {
	case http.MethodGet:
		comments := []domain.Comment{}
		for c := range s.store.CommentsByVideo(videoID) {
			comments = append(comments, c)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": comments,
			"count": len(comments),
		})
	case http.MethodPost:
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		if s.commentLimiter != nil && !s.commentLimiter.Allow("comment:"+user.UserID+":"+util.ClientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		clean := sanitize.Comment(req.Content)
		comment, err := s.store.AddComment(r.Context(), videoID, clean, user.UserID, user.Name)
		respondMutation(w, r, http.StatusCreated, comment, err)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	liked, err := s.store.ToggleLike(r.Context(), videoID, user.UserID)
	video, _ := s.store.VideoByID(videoID)
	respondMutation(w, r, http.StatusOK, map[string]any{
		"liked": liked,
		"likes": video.Likes,
	}, err)
}

func (s *Server) handleLiked(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"liked": s.store.IsLiked(videoID, user.UserID)})
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	err := s.store.AddToHistory(r.Context(), videoID, user.UserID)
	respondMutation(w, r, http.StatusOK, map[string]string{"status": "recorded"}, err)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, videoID string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := s.store.UpdateProgress(r.Context(), videoID, user.UserID, req.Seconds)
	respondMutation(w, r, http.StatusOK, map[string]string{"status": "updated"}, err)
}

// /tutors/{id}/subscribe, /tutors/{id}/subscription, /tutors/{id}/videos
func (s *Server) handleTutorByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/tutors/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" {
		notFound(w, "not found")
		return
	}
	tutorID := parts[0]

	switch parts[1] {
	case "subscribe":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		subscribed, err := s.store.ToggleSubscription(r.Context(), tutorID, user.UserID)
		respondMutation(w, r, http.StatusOK, map[string]any{
			"subscribed":  subscribed,
			"subscribers": s.store.SubscriptionCount(tutorID),
		}, err)
	case "subscription":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		user, ok := s.requireUser(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"subscribed":  s.store.IsSubscribed(tutorID, user.UserID),
			"subscribers": s.store.SubscriptionCount(tutorID),
		})
	case "videos":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		videos := s.store.TutorVideos(tutorID)
		writeJSON(w, http.StatusOK, map[string]any{
			"items": videos,
			"count": len(videos),
		})
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request, user domain.Identity) {
	entries := s.store.HistoryForUser(user.UserID)
	writeJSON(w, http.StatusOK, map[string]any{
		"items": entries,
		"count": len(entries),
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, _ *http.Request, user domain.Identity) {
	videos := s.store.SubscriptionFeed(user.UserID)
	writeJSON(w, http.StatusOK, map[string]any{
		"items": videos,
		"count": len(videos),
	})
}

type catalogRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		grades := s.store.Grades()
		writeJSON(w, http.StatusOK, map[string]any{"items": grades, "count": len(grades)})
	case http.MethodPost:
		if _, ok := s.requireRole(w, r, domain.RoleAdmin); !ok {
			return
		}
		var req catalogRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		grade, err := s.store.AddGrade(r.Context(), req.Name, req.Description)
		respondMutation(w, r, http.StatusCreated, grade, err)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleGradeByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/grades/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	err := s.store.DeleteGrade(r.Context(), id)
	respondMutation(w, r, http.StatusOK, map[string]string{"status": "deleted"}, err)
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		courses := s.store.Courses()
		writeJSON(w, http.StatusOK, map[string]any{"items": courses, "count": len(courses)})
	case http.MethodPost:
		if _, ok := s.requireRole(w, r, domain.RoleAdmin); !ok {
			return
		}
		var req catalogRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		course, err := s.store.AddCourse(r.Context(), req.Name, req.Description)
		respondMutation(w, r, http.StatusCreated, course, err)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCourseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/courses/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if _, ok := s.requireRole(w, r, domain.RoleAdmin); !ok {
		return
	}
	err := s.store.DeleteCourse(r.Context(), id)
	respondMutation(w, r, http.StatusOK, map[string]string{"status": "deleted"}, err)
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCodeFor(status),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCodeFor(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "RESOURCE_NOT_FOUND"
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "SYSTEM_INTERNAL_ERROR"
	}
}
