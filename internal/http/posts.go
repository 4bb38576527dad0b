package httpapp

import (
	"fmt"
	"net/http"

	"github.com/alphabot-ai/postboard/internal/access"
	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/query"
	"github.com/alphabot-ai/postboard/internal/schema"
)

type postRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := s.queries.List(params.Get("page"), params.Get("limit"), params.Get("author"), params.Get("tags"))
	s.writePostPage(w, r, q, "No Posts Found")
}

func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q, err := s.queries.Search(params.Get("query"), params.Get("page"), params.Get("limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writePostPage(w, r, q, "No posts found for this query")
}

// writePostPage runs q and renders one page. An empty page is 404.
func (s *Server) writePostPage(w http.ResponseWriter, r *http.Request, q query.PostQuery, emptyMessage string) {
	ctx := r.Context()
	total, err := s.store.CountPosts(ctx, q.Filter)
	if err != nil {
		writeError(w, r, storeError(err, emptyMessage))
		return
	}
	posts, err := s.store.FindPosts(ctx, q)
	if err != nil {
		writeError(w, r, storeError(err, emptyMessage))
		return
	}
	if len(posts) == 0 {
		writeError(w, r, apperr.NotFoundf("%s", emptyMessage))
		return
	}
	views, err := s.viewPosts(ctx, posts)
	if err != nil {
		writeError(w, r, storeError(err, emptyMessage))
		return
	}
	writeJSON(w, http.StatusOK, page("totalPosts", views, len(views), q.Paginate(total)))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	u, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req postRequest
	if err := s.decodeBody(w, r, schema.Post, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p := model.Post{
		Title:     *req.Title,
		Content:   *req.Content,
		AuthorUID: u.UID,
		Tags:      req.Tags,
	}
	if err := s.store.CreatePost(r.Context(), &p); err != nil {
		writeError(w, r, storeError(err, "author not found"))
		return
	}
	logger.FromContext(r.Context()).WithField("postID", p.ID).Info("post created")
	s.writePost(w, r, http.StatusCreated, p)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "post")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.store.GetPost(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, postNotFound(id)))
		return
	}
	s.writePost(w, r, http.StatusOK, p)
}

// handleUpdatePost runs behind ownerOrAdmin. Only fields present in the
// body change; the author stays the same.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	current, ok := access.PostFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.Internal, "post missing from request context"))
		return
	}
	var req postRequest
	if err := s.decodeBody(w, r, schema.PostUpdate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.store.UpdatePost(r.Context(), current.ID, model.PostUpdate{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		writeError(w, r, storeError(err, postNotFound(current.ID)))
		return
	}
	s.writePost(w, r, http.StatusOK, p)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	current, ok := access.PostFromContext(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.Internal, "post missing from request context"))
		return
	}
	if err := s.store.DeletePost(r.Context(), current.ID); err != nil {
		writeError(w, r, storeError(err, postNotFound(current.ID)))
		return
	}
	logger.FromContext(r.Context()).WithField("postID", current.ID).Info("post deleted")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Post with id %d deleted", current.ID),
	})
}

// handleAddComment validates the text before touching the store.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	u, err := identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := pathID(r, "post")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := s.decodeBody(w, r, schema.Comment, &req); err != nil {
		if apperr.Is(err, apperr.InvalidArgument) {
			err = apperr.Wrap(apperr.InvalidArgument, err, "Comment text is required")
		}
		writeError(w, r, err)
		return
	}
	p, err := s.store.AddComment(r.Context(), id, model.Comment{Text: req.Text, AuthorUID: u.UID})
	if err != nil {
		writeError(w, r, storeError(err, postNotFound(id)))
		return
	}
	s.writePost(w, r, http.StatusOK, p)
}

func (s *Server) writePost(w http.ResponseWriter, r *http.Request, status int, p model.Post) {
	view, err := s.viewPost(r.Context(), p)
	if err != nil {
		writeError(w, r, storeError(err, postNotFound(p.ID)))
		return
	}
	writeJSON(w, status, view)
}

func postNotFound(id int64) string {
	return fmt.Sprintf("Post with id %d not found", id)
}
