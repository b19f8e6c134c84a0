package blog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/chronicles/internal/apperr"
	"github.com/sujalbistaa/chronicles/internal/db"
	"github.com/sujalbistaa/chronicles/internal/metrics"
	"github.com/sujalbistaa/chronicles/internal/permission"
	"github.com/sujalbistaa/chronicles/internal/sentiment"
	"github.com/sujalbistaa/chronicles/internal/store"
)

const (
	positiveText = "This was a great learning experience"
	negativeText = "I hate this terrible experience"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type stubClassifier struct {
	result sentiment.Result
	err    error
}

func (s stubClassifier) Classify(string) (sentiment.Result, error) {
	return s.result, s.err
}

type fixture struct {
	svc      *Service
	store    *store.Gorm
	clock    *clockwork.FakeClock
	notifier *recordingNotifier
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	conn, err := db.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	f := &fixture{
		store:    store.NewGorm(conn),
		clock:    clockwork.NewFakeClockAt(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)),
		notifier: &recordingNotifier{},
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	opts = append([]Option{WithClock(f.clock), WithNotifier(f.notifier), WithMetrics(f.metrics)}, opts...)
	f.svc = NewService(f.store, sentiment.NewClassifier(), opts...)
	return f
}

func validInput() CreateInput {
	return CreateInput{
		AuthorName: "Asha",
		AuthorYear: "3-4",
		AuthorRole: "Senior",
		LinkedIn:   "https://linkedin.com/in/asha",
		Title:      "My Internship at Acme",
		Company:    "Acme",
		Content:    positiveText,
	}
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	post, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	return post.ID
}

func assertType(t *testing.T, err error, want apperr.Type) {
	t.Helper()
	require.Error(t, err)
	structured := apperr.AsStructuredError(err)
	assert.Equal(t, want, structured.Type, structured.Error())
}

func TestCreatePersistsAcceptedPost(t *testing.T) {
	f := newFixture(t)

	post, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "senior", post.AuthorRole, "role is stored lowercase")
	assert.Equal(t, "my-internship-at-acme", post.Slug)
	assert.True(t, f.clock.Now().Equal(post.CreatedAt))
	assert.Greater(t, post.Sentiment.Compound, sentiment.RejectThreshold)

	view, err := f.svc.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, positiveText, view.Content)
	assert.Zero(t, view.Likes)
	assert.Zero(t, view.Dislikes)

	assert.Equal(t, []EventType{EventCreated}, f.notifier.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SentimentVerdicts.WithLabelValues("accept")))
}

func TestCreateRejectsNegativeContent(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Content = negativeText

	_, err := f.svc.Create(context.Background(), in)
	assertType(t, err, apperr.TypeSentiment)

	structured := apperr.AsStructuredError(err)
	assert.Equal(t, sentiment.MessageRejected, structured.Message)
	scores, ok := structured.Context["scores"].(sentiment.Scores)
	require.True(t, ok)
	assert.LessOrEqual(t, scores.Compound, sentiment.RejectThreshold)

	posts, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Empty(t, f.notifier.types())
}

func TestCreateRejectsNegativeContentWithUnicodeSpaces(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Content = "I\u00a0hate\u00a0this\u00a0terrible\u00a0experience"

	_, err := f.svc.Create(context.Background(), in)
	assertType(t, err, apperr.TypeSentiment)

	posts, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePermission(t *testing.T) {
	f := newFixture(t)

	for _, role := range []string{"junior", "", "admin"} {
		in := validInput()
		in.AuthorRole = role
		_, err := f.svc.Create(context.Background(), in)
		assertType(t, err, apperr.TypePermission)
	}

	for _, role := range []string{"staff", "COORDINATOR"} {
		in := validInput()
		in.AuthorRole = role
		_, err := f.svc.Create(context.Background(), in)
		assert.NoError(t, err, role)
	}
}

func TestCreateRequiresFields(t *testing.T) {
	f := newFixture(t)

	for _, clear := range []func(*CreateInput){
		func(in *CreateInput) { in.AuthorName = "" },
		func(in *CreateInput) { in.Title = "" },
		func(in *CreateInput) { in.Company = "" },
		func(in *CreateInput) { in.Content = "" },
	} {
		in := validInput()
		clear(&in)
		_, err := f.svc.Create(context.Background(), in)
		assertType(t, err, apperr.TypeValidation)
	}
}

func TestCreateClassifierFaultIsInternal(t *testing.T) {
	f := newFixture(t)
	f.svc.classifier = stubClassifier{err: errors.New("bad encoding")}

	_, err := f.svc.Create(context.Background(), validInput())
	assertType(t, err, apperr.TypeInternal)
}

func TestCreateBoundaryScoreIsRejected(t *testing.T) {
	f := newFixture(t)
	f.svc.classifier = stubClassifier{result: sentiment.Result{
		Scores:  sentiment.Scores{Compound: -0.05},
		Verdict: sentiment.VerdictFor(-0.05, sentiment.RejectThreshold),
		Message: sentiment.MessageRejected,
	}}

	_, err := f.svc.Create(context.Background(), validInput())
	assertType(t, err, apperr.TypeSentiment)
}

func TestGetMissingPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "does-not-exist")
	assertType(t, err, apperr.TypeNotFound)
}

func TestListReducesReactionsToCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.create(t)
	f.clock.Advance(time.Hour)
	second := f.create(t)

	_, err := f.svc.Like(ctx, first, "u1")
	require.NoError(t, err)
	_, err = f.svc.Dislike(ctx, first, "u2")
	require.NoError(t, err)

	posts, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second, posts[0].ID, "newest first")
	assert.Equal(t, int64(1), posts[1].Likes)
	assert.Equal(t, int64(1), posts[1].Dislikes)
}

func TestEditTitleOnlyKeepsContentAndSentiment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)
	before, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	title := "New Title"
	post, err := f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("Asha", "senior"), Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "New Title", post.Title)
	assert.Equal(t, "new-title", post.Slug)
	assert.Equal(t, before.Content, post.Content)
	assert.Equal(t, before.Sentiment, post.Sentiment)
	assert.Equal(t, before.Company, post.Company)
	assert.Contains(t, f.notifier.types(), EventUpdated)
}

func TestEditContentRecomputesSentiment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)
	before, err := f.svc.Get(ctx, id)
	require.NoError(t, err)

	content := "The mentors were helpful and the projects were interesting"
	post, err := f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("Asha", "senior"), Content: &content})
	require.NoError(t, err)

	want, err := sentiment.NewClassifier().Classify(content)
	require.NoError(t, err)
	assert.Equal(t, content, post.Content)
	assert.Equal(t, want.Scores.Compound, post.Sentiment.Compound)
	assert.NotEqual(t, before.Sentiment, post.Sentiment)
}

func TestEditRejectedContentAbortsWholeEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	title := "Should Not Apply"
	content := negativeText
	_, err := f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("Asha", "senior"), Title: &title, Content: &content})
	assertType(t, err, apperr.TypeSentiment)

	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "My Internship at Acme", view.Title)
	assert.Equal(t, positiveText, view.Content)
}

func TestEditPermissionAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)
	title := "Hijacked"

	_, err := f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("Ravi", "staff"), Title: &title})
	assertType(t, err, apperr.TypePermission)

	_, err = f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("asha", "senior"), Title: &title})
	assertType(t, err, apperr.TypePermission)

	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "My Internship at Acme", view.Title)

	empty := ""
	_, err = f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("Asha", "senior"), Title: &empty})
	assertType(t, err, apperr.TypeValidation)

	_, err = f.svc.Edit(ctx, "missing", EditInput{Editor: ParseActor("Asha", "senior"), Title: &title})
	assertType(t, err, apperr.TypeNotFound)

	company := "Acme Labs"
	post, err := f.svc.Edit(ctx, id, EditInput{Editor: ParseActor("Boss", "coordinator"), Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", post.Company)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	assertType(t, f.svc.Delete(ctx, id, ParseActor("Ravi", "staff")), apperr.TypePermission)

	require.NoError(t, f.svc.Delete(ctx, id, ParseActor("Asha", "senior")))
	assertType(t, f.svc.Delete(ctx, id, ParseActor("Asha", "senior")), apperr.TypeNotFound)
	assertType(t, f.svc.Delete(ctx, id, ParseActor("Boss", "coordinator")), apperr.TypeNotFound)

	_, err := f.svc.Get(ctx, id)
	assertType(t, err, apperr.TypeNotFound)
}

func TestLikeTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	counts, err := f.svc.Like(ctx, id, "41110001")
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Likes: 1}, counts)

	_, err = f.svc.Like(ctx, id, "41110001")
	assertType(t, err, apperr.TypeConflict)
	assert.Equal(t, "Already liked", apperr.AsStructuredError(err).Message)

	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Likes)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReactionsTotal.WithLabelValues("like", "conflict")))
}

func TestLikeAfterDislikeSwitches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	counts, err := f.svc.Dislike(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Dislikes: 1}, counts)

	counts, err = f.svc.Like(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Likes: 1}, counts)

	counts, err = f.svc.Dislike(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Dislikes: 1}, counts)

	_, err = f.svc.Dislike(ctx, id, "u1")
	assertType(t, err, apperr.TypeConflict)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.ReactionsTotal.WithLabelValues("like", "switched"))+
		testutil.ToFloat64(f.metrics.ReactionsTotal.WithLabelValues("dislike", "switched")))
}

func TestReactionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	_, err := f.svc.Like(ctx, id, "")
	assertType(t, err, apperr.TypeValidation)

	_, err = f.svc.Dislike(ctx, "missing", "u1")
	assertType(t, err, apperr.TypeNotFound)
}

func TestConcurrentLikeAndDislike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	var wg sync.WaitGroup
	var likeErr, dislikeErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, likeErr = f.svc.Like(ctx, id, "alice")
	}()
	go func() {
		defer wg.Done()
		_, dislikeErr = f.svc.Dislike(ctx, id, "bob")
	}()
	wg.Wait()

	require.NoError(t, likeErr)
	require.NoError(t, dislikeErr)

	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Likes)
	assert.Equal(t, int64(1), view.Dislikes)
}

func TestConcurrentSwitchesKeepSetsDisjoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.create(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		user := fmt.Sprintf("user-%d", i%2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Like(ctx, id, user)
		}()
		go func() {
			defer wg.Done()
			_, _ = f.svc.Dislike(ctx, id, user)
		}()
	}
	wg.Wait()

	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.Likes+view.Dislikes, "each user sits in exactly one set")
}

func TestNotifiersFanOut(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	Notifiers{a, nil, b}.Notify(context.Background(), Event{Type: EventDeleted, PostID: "x"})

	assert.Equal(t, []EventType{EventDeleted}, a.types())
	assert.Equal(t, []EventType{EventDeleted}, b.types())
}

func TestCustomResolver(t *testing.T) {
	f := newFixture(t, WithResolver(denyAll{}))

	_, err := f.svc.Create(context.Background(), validInput())
	assertType(t, err, apperr.TypePermission)
}

type denyAll struct{}

func (denyAll) CanPost(permission.Role) bool            { return false }
func (denyAll) CanModify(permission.Actor, string) bool { return false }
