package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"buzznest/handler"
	"buzznest/interceptor"
	"buzznest/model"
	"buzznest/pkg/jwt"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

func caller(r *http.Request) *jwt.Claims {
	claims, _ := interceptor.ClaimsFromContext(r.Context())
	return claims
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.cfg.Auth.Signup(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.cfg.Auth.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cfg.Auth.GetProfile(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, badRequest("File too large."))
			return
		}
		writeError(w, r, badRequest("Invalid request"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var upload *handler.Upload
	switch files := r.MultipartForm.File["file"]; len(files) {
	case 0:
	case 1:
		f, err := files[0].Open()
		if err != nil {
			writeError(w, r, badRequest("No file uploaded."))
			return
		}
		defer f.Close()
		upload = &handler.Upload{
			Filename:    files[0].Filename,
			ContentType: files[0].Header.Get("Content-Type"),
			Body:        f,
		}
	default:
		writeError(w, r, badRequest("Exactly one file must be uploaded."))
		return
	}

	resp, err := s.cfg.Posts.CreatePost(r.Context(), caller(r), r.FormValue("content"), upload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// parsePage reads the optional limit and cursor query parameters.
func parsePage(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	page := models.Page{Cursor: q.Get("cursor")}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, badRequest("limit must be a positive integer")
		}
		page.Limit = limit
	}
	return page, nil
}

func (s *Server) listFeed(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	posts, next, err := s.cfg.Posts.ListFeed(r.Context(), caller(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if next != "" {
		w.Header().Set("X-Next-Cursor", next)
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) listOwnPosts(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	posts, next, err := s.cfg.Posts.ListOwnPosts(r.Context(), caller(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if next != "" {
		w.Header().Set("X-Next-Cursor", next)
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := s.cfg.Posts.UpdatePost(r.Context(), caller(r), mux.Vars(r)["postId"], &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cfg.Posts.DeletePost(r.Context(), caller(r), mux.Vars(r)["postId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) toggleLike(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cfg.Posts.ToggleLike(r.Context(), caller(r), mux.Vars(r)["postId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) postCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cfg.Posts.GetPostCount(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.createComment(w, r, &req)
}

func (s *Server) addCommentToPost(w http.ResponseWriter, r *http.Request) {
	var body models.CommentContentRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	s.createComment(w, r, &models.CreateCommentRequest{
		PostID:  mux.Vars(r)["postId"],
		Content: body.Content,
	})
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request, req *models.CreateCommentRequest) {
	resp, err := s.cfg.Comment.AddComment(r.Context(), caller(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) listCommentsQuery(w http.ResponseWriter, r *http.Request) {
	s.writeComments(w, r, r.URL.Query().Get("postId"))
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	s.writeComments(w, r, mux.Vars(r)["postId"])
}

func (s *Server) writeComments(w http.ResponseWriter, r *http.Request, postID string) {
	resp, err := s.cfg.Comment.ListComments(r.Context(), postID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) toggleFollow(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cfg.Follow.ToggleFollow(r.Context(), caller(r), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) followCounts(w http.ResponseWriter, r *http.Request) {
	resp, err := s.cfg.Follow.GetFollowCounts(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.cfg.Users.SearchUsers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
