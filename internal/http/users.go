package httpapp

import (
	"fmt"
	"net/http"

	"github.com/alphabot-ai/postboard/internal/apperr"
	"github.com/alphabot-ai/postboard/internal/logger"
	"github.com/alphabot-ai/postboard/internal/model"
	"github.com/alphabot-ai/postboard/internal/schema"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	win := s.queries.Window(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	total, err := s.store.CountUsers(ctx)
	if err != nil {
		writeError(w, r, storeError(err, "No Users Found"))
		return
	}
	users, err := s.store.ListUsers(ctx, win)
	if err != nil {
		writeError(w, r, storeError(err, "No Users Found"))
		return
	}
	if len(users) == 0 {
		writeError(w, r, apperr.NotFoundf("No Users Found"))
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewUser(u, false))
	}
	writeJSON(w, http.StatusOK, page("totalUsers", views, len(views), win.Paginate(total)))
}

// handleCreateUser is the admin path for adding accounts. It follows the
// signup rules, including the bootstrap admin address.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := s.decodeBody(w, r, schema.Signup, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewUser(u, true))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, storeError(err, userNotFound(id)))
		return
	}
	writeJSON(w, http.StatusOK, viewUser(u, false))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
	}
	if err := s.decodeBody(w, r, schema.UserUpdate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	upd := model.UserUpdate{Name: req.Name, Email: req.Email}
	if req.Password != nil {
		hash, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd.PasswordHash = &hash
	}
	u, err := s.store.UpdateUser(r.Context(), id, upd)
	if err != nil {
		writeError(w, r, storeError(err, userNotFound(id)))
		return
	}
	writeJSON(w, http.StatusOK, viewUser(u, false))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, storeError(err, userNotFound(id)))
		return
	}
	logger.FromContext(r.Context()).WithField("userID", id).Info("user deleted")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("User with id %d deleted", id),
	})
}

func userNotFound(id int64) string {
	return fmt.Sprintf("User with id %d not found", id)
}
