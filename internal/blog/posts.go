package blog

import (
	"context"
	"time"

	"github.com/gosimple/slug"

	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/logging"
	"github.com/sujalbistaa/chronicles/internal/models"
	"github.com/sujalbistaa/chronicles/internal/permission"
	"github.com/sujalbistaa/chronicles/internal/store"
)

type CreateInput struct {
	AuthorName string
	AuthorYear string
	AuthorRole string
	LinkedIn   string
	Title      string
	Company    string
	Content    string
}

// EditInput carries the editable fields. Nil or empty fields are left as
// they are.
type EditInput struct {
	Editor   permission.Actor
	Title    *string
	Company  *string
	Content  *string
	LinkedIn *string
}

func (in EditInput) empty() bool {
	return blank(in.Title) && blank(in.Company) && blank(in.Content) && blank(in.LinkedIn)
}

func blank(s *string) bool {
	return s == nil || *s == ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PostView is a post with its reaction sets reduced to counts.
type PostView struct {
	models.Post
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// Summary is the list projection of a post.
type Summary struct {
	ID         string    `json:"_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Company    string    `json:"company"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	AuthorRole string    `json:"author_role"`
	AuthorYear string    `json:"author_year"`
	LinkedIn   *string   `json:"linkedin"`
	Likes      int64     `json:"likes"`
	Dislikes   int64     `json:"dislikes"`
	CreatedAt  time.Time `json:"created_at"`
}

func summarize(p models.Post, c store.Counts) Summary {
	return Summary{
		ID:         p.ID,
		Title:      p.Title,
		Slug:       p.Slug,
		Company:    p.Company,
		Content:    p.Content,
		AuthorName: p.AuthorName,
		AuthorRole: p.AuthorRole,
		AuthorYear: p.AuthorYear,
		LinkedIn:   p.LinkedIn,
		Likes:      c.Likes,
		Dislikes:   c.Dislikes,
		CreatedAt:  p.CreatedAt,
	}
}

// Create publishes a new post after the role and sentiment checks pass.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Post, error) {
	role, err := permission.ParseRole(in.AuthorRole)
	if err != nil || !s.perms.CanPost(role) {
		return models.Post{}, apperr.PermissionDenied("Only senior students, staff, or coordinators can post blogs")
	}

	if in.AuthorName == "" || in.Title == "" || in.Company == "" || in.Content == "" {
		return models.Post{}, apperr.Validation("Missing required fields")
	}

	scores, err := s.screen(in.Content)
	if err != nil {
		return models.Post{}, err
	}

	post := models.Post{
		ID:         s.newID(),
		Title:      in.Title,
		Slug:       slug.Make(in.Title),
		Company:    in.Company,
		Content:    in.Content,
		AuthorName: in.AuthorName,
		AuthorRole: role.String(),
		AuthorYear: in.AuthorYear,
		LinkedIn:   optional(in.LinkedIn),
		Sentiment:  models.Sentiment(scores),
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.store.CreatePost(ctx, &post); err != nil {
		return models.Post{}, storageError("failed to save blog", err)
	}

	logging.WithPost(post.ID).Info("Blog published", "company", post.Company, "compound", post.Sentiment.Compound)
	s.notifier.Notify(ctx, Event{Type: EventCreated, PostID: post.ID, Data: summarize(post, store.Counts{})})
	return post, nil
}

func (s *Service) Get(ctx context.Context, id string) (PostView, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return PostView{}, storageError("failed to load blog", err)
	}
	counts, err := s.store.ReactionCounts(ctx, id)
	if err != nil {
		return PostView{}, storageError("failed to load reactions", err)
	}
	c := counts[id]
	return PostView{Post: post, Likes: c.Likes, Dislikes: c.Dislikes}, nil
}

// List returns every post, newest first. There is no pagination.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, storageError("failed to load blogs", err)
	}
	counts, err := s.store.ReactionCounts(ctx)
	if err != nil {
		return nil, storageError("failed to load reactions", err)
	}

	out := make([]Summary, 0, len(posts))
	for _, p := range posts {
		out = append(out, summarize(p, counts[p.ID]))
	}
	return out, nil
}

// Edit applies a partial update. A rejected content change aborts the whole
// edit, including any other supplied field.
func (s *Service) Edit(ctx context.Context, id string, in EditInput) (models.Post, error) {
	post, err := s.store.UpdatePost(ctx, id, func(p *models.Post) error {
		if !s.perms.CanModify(in.Editor, p.AuthorName) {
			return apperr.PermissionDenied("Permission denied")
		}
		if in.empty() {
			return apperr.Validation("No fields to update")
		}

		if !blank(in.Content) {
			scores, err := s.screen(*in.Content)
			if err != nil {
				return err
			}
			p.Content = *in.Content
			p.Sentiment = models.Sentiment(scores)
		}
		if !blank(in.Title) {
			p.Title = *in.Title
			p.Slug = slug.Make(p.Title)
		}
		if !blank(in.Company) {
			p.Company = *in.Company
		}
		if !blank(in.LinkedIn) {
			p.LinkedIn = optional(*in.LinkedIn)
		}
		return nil
	})
	if err != nil {
		return models.Post{}, storageError("failed to update blog", err)
	}

	logging.WithPost(id).Info("Blog updated", "editor", in.Editor.Name, "editor_role", in.Editor.Role.String())
	s.notifier.Notify(ctx, Event{Type: EventUpdated, PostID: id, Data: post})
	return post, nil
}

// Delete removes a post permanently. Deleting an id twice reports NotFound
// the second time.
func (s *Service) Delete(ctx context.Context, id string, editor permission.Actor) error {
	err := s.store.DeletePost(ctx, id, func(p models.Post) error {
		if !s.perms.CanModify(editor, p.AuthorName) {
			return apperr.PermissionDenied("Permission denied")
		}
		return nil
	})
	if err != nil {
		return storageError("failed to delete blog", err)
	}

	logging.WithPost(id).Info("Blog deleted", "editor", editor.Name, "editor_role", editor.Role.String())
	s.notifier.Notify(ctx, Event{Type: EventDeleted, PostID: id, Data: map[string]string{"id": id}})
	return nil
}

// ParseActor builds the claimed editor identity. The name is kept verbatim
// for the exact author match; an unknown role yields RoleUnknown.
func ParseActor(name, role string) permission.Actor {
	r, _ := permission.ParseRole(role)
	return permission.Actor{Name: name, Role: r}
}
