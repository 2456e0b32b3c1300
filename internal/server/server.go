// Package server exposes the thin HTTP read surface: paginated post
// listings, single posts, the tag index, and served image files. Every
// lookup miss or internal failure collapses to a generic 404 so no
// internal detail leaks.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/emrgen/blog/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	blog     *service.BlogService
	images   *service.ImageService
	pageSize int
}

func NewServer(blog *service.BlogService, images *service.ImageService, pageSize int) *Server {
	return &Server{blog: blog, images: images, pageSize: pageSize}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/posts", s.listPosts)
	r.Get("/api/posts/{synonym}", s.getPost)
	r.Get("/api/tags", s.listTags)
	r.Get("/img/{fileName}", s.getImage)

	return cors.Default().Handler(r)
}

func (s *Server) Start(addr string) error {
	logrus.Infof("serving blog api on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.notFound(w)
			return
		}
		page = parsed
	}
	tag := r.URL.Query().Get("tag")

	result, err := s.blog.PostsByPage(r.Context(), page, s.pageSize, tag)
	if err != nil {
		logrus.Warnf("list posts failed: %v", err)
		s.notFound(w)
		return
	}
	writeJSON(w, result)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	detail, err := s.blog.PostData(r.Context(), chi.URLParam(r, "synonym"))
	if err != nil {
		logrus.Warnf("get post failed: %v", err)
		s.notFound(w)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.blog.AllTags(r.Context())
	if err != nil {
		logrus.Warnf("list tags failed: %v", err)
		s.notFound(w)
		return
	}
	writeJSON(w, map[string]interface{}{"tags": tags})
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	path, err := s.images.FilePath(r.Context(), chi.URLParam(r, "fileName"))
	if err != nil {
		logrus.Warnf("image lookup failed: %v", err)
		s.notFound(w)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) notFound(w http.ResponseWriter) {
	http.Error(w, "not found", http.StatusNotFound)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("failed to encode response: %v", err)
	}
}
