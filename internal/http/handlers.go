package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/chronicles/internal/account"
	"github.com/sujalbistaa/chronicles/internal/analytics"
	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/blog"
	"github.com/sujalbistaa/chronicles/internal/metrics"
	"github.com/sujalbistaa/chronicles/internal/store"
)

// --- Structs for request binding ---

type CreateBlogInput struct {
	AuthorName string `json:"author_name"`
	AuthorYear string `json:"author_year"`
	AuthorRole string `json:"author_role"`
	LinkedIn   string `json:"linkedin"`
	Title      string `json:"title" binding:"max=200"`
	Company    string `json:"company" binding:"max=100"`
	Content    string `json:"content" binding:"max=20000"`
}

type EditBlogInput struct {
	EditorName string  `json:"editor_name"`
	EditorRole string  `json:"editor_role"`
	Title      *string `json:"title" binding:"omitempty,max=200"`
	Company    *string `json:"company" binding:"omitempty,max=100"`
	Content    *string `json:"content" binding:"omitempty,max=20000"`
	LinkedIn   *string `json:"linkedin"`
}

type EditorInput struct {
	EditorName string `json:"editor_name"`
	EditorRole string `json:"editor_role"`
}

type ReactionInput struct {
	UserID string `json:"user_id"`
}

type SignupInput struct {
	Name     string `json:"name"`
	RegNo    string `json:"regNo"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Year     string `json:"year"`
	LinkedIn string `json:"linkedin"`
}

type LoginInput struct {
	RegNo    string `json:"regNo"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CoordinatorInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// --- Handlers ---

type Env struct {
	Blogs     *blog.Service
	Accounts  *account.Directory
	Analytics *analytics.Service
	Store     store.Store
	Metrics   *metrics.Metrics
}

// bind decodes the JSON body. An empty body is accepted when optional is set,
// leaving the zero value in place.
func (e *Env) bind(c *gin.Context, v any, optional bool) bool {
	err := c.ShouldBindJSON(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	slog.Debug("Request body rejected", "path", c.Request.URL.Path, "error", err)
	e.respondError(c, apperr.Validation("Invalid request body"))
	return false
}

func (e *Env) respondError(c *gin.Context, err error) {
	structured := apperr.AsStructuredError(err)
	e.Metrics.ObserveError(string(structured.Type))
	logError(c, structured)

	body := gin.H{"status": "error", "type": structured.Type, "message": structured.Message}
	switch structured.Type {
	case apperr.TypeSentiment:
		body["status"] = "warning"
		body["scores"] = structured.Context["scores"]
	case apperr.TypeUnavailable:
		c.Header("Retry-After", "1")
	case apperr.TypeInternal:
		body["message"] = "Internal server error"
	}
	c.AbortWithStatusJSON(structured.HTTPStatus(), body)
}

func logError(c *gin.Context, err *apperr.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"status", err.HTTPStatus(),
	}

	switch err.Type {
	case apperr.TypeValidation, apperr.TypeNotFound, apperr.TypeSentiment:
		slog.Info("Request rejected", attrs...)
	case apperr.TypePermission, apperr.TypeConflict, apperr.TypeUnauthorized:
		slog.Warn("Request refused", attrs...)
	default:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Request failed", attrs...)
	}
}

func (e *Env) CreateBlog(c *gin.Context) {
	var input CreateBlogInput
	if !e.bind(c, &input, false) {
		return
	}

	post, err := e.Blogs.Create(c.Request.Context(), blog.CreateInput{
		AuthorName: input.AuthorName,
		AuthorYear: input.AuthorYear,
		AuthorRole: input.AuthorRole,
		LinkedIn:   input.LinkedIn,
		Title:      input.Title,
		Company:    input.Company,
		Content:    input.Content,
	})
	if err != nil {
		e.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":    "success",
		"message":   "Blog posted successfully!",
		"id":        post.ID,
		"sentiment": post.Sentiment,
	})
}

func (e *Env) GetBlogs(c *gin.Context) {
	posts, err := e.Blogs.List(c.Request.Context())
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "blogs": posts})
}

func (e *Env) GetBlog(c *gin.Context) {
	post, err := e.Blogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "blog": post})
}

func (e *Env) EditBlog(c *gin.Context) {
	var input EditBlogInput
	if !e.bind(c, &input, true) {
		return
	}

	post, err := e.Blogs.Edit(c.Request.Context(), c.Param("id"), blog.EditInput{
		Editor:   blog.ParseActor(input.EditorName, input.EditorRole),
		Title:    input.Title,
		Company:  input.Company,
		Content:  input.Content,
		LinkedIn: input.LinkedIn,
	})
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Blog updated successfully!", "blog": post})
}

func (e *Env) DeleteBlog(c *gin.Context) {
	var input EditorInput
	if !e.bind(c, &input, true) {
		return
	}

	if err := e.Blogs.Delete(c.Request.Context(), c.Param("id"), blog.ParseActor(input.EditorName, input.EditorRole)); err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Blog deleted successfully!"})
}

func (e *Env) LikeBlog(c *gin.Context) {
	e.react(c, e.Blogs.Like, "Blog liked!")
}

func (e *Env) DislikeBlog(c *gin.Context) {
	e.react(c, e.Blogs.Dislike, "Blog disliked!")
}

func (e *Env) react(c *gin.Context, apply func(ctx context.Context, postID, userID string) (store.Counts, error), message string) {
	var input ReactionInput
	if !e.bind(c, &input, true) {
		return
	}

	counts, err := apply(c.Request.Context(), c.Param("id"), input.UserID)
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  message,
		"likes":    counts.Likes,
		"dislikes": counts.Dislikes,
	})
}

func (e *Env) Signup(c *gin.Context) {
	var input SignupInput
	if !e.bind(c, &input, false) {
		return
	}

	role, err := e.Accounts.Register(c.Request.Context(), account.RegisterInput{
		Name:     input.Name,
		Year:     input.Year,
		Password: input.Password,
		RegNo:    input.RegNo,
		Email:    input.Email,
		LinkedIn: input.LinkedIn,
	})
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User registered successfully",
		"role":    role.String(),
	})
}

func (e *Env) Login(c *gin.Context) {
	var input LoginInput
	if !e.bind(c, &input, false) {
		return
	}

	res, err := e.Accounts.Login(c.Request.Context(), account.LoginInput{
		RegNo:    input.RegNo,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Login successful",
		"role":    res.Role.String(),
		"name":    res.Name,
	})
}

func (e *Env) ProvisionCoordinator(c *gin.Context) {
	var input CoordinatorInput
	if !e.bind(c, &input, false) {
		return
	}

	if err := e.Accounts.ProvisionCoordinator(c.Request.Context(), input.Name, input.Email, input.Password); err != nil {
		e.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "Coordinator provisioned", "role": "coordinator"})
}

// analyticsHandler adapts an aggregation to the {"status","data"} envelope.
func analyticsHandler[T any](e *Env, load func(ctx context.Context) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := load(c.Request.Context())
		if err != nil {
			e.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
	}
}

func (e *Env) Health(c *gin.Context) {
	if err := e.Store.Ping(c.Request.Context()); err != nil {
		e.respondError(c, apperr.Unavailable("database unreachable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Backend connected successfully!"})
}
