package content

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"alamedalearn/pkg/persist"
)

func newTestStore(t *testing.T) (*Store, *persist.MemoryAdapter) {
	t.Helper()
	adapter := persist.NewMemoryAdapter()
	seq := 0
	s := New(adapter,
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return s, adapter
}

func TestInitializeSeedsSampleVideos(t *testing.T) {
	s, _ := newTestStore(t)

	videos := s.Videos()
	if len(videos) != 2 {
		t.Fatalf("expected 2 seeded videos, got %d", len(videos))
	}
	if videos[0].Title != "Introduction to React Hooks" {
		t.Fatalf("unexpected first seed title: %q", videos[0].Title)
	}
	if videos[1].Title != "Advanced CSS Animations" {
		t.Fatalf("unexpected second seed title: %q", videos[1].Title)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	if got := len(s.Videos()); got != 2 {
		t.Fatalf("seed duplicated: %d videos", got)
	}
}

func TestInitializeDoesNotSeedNonEmptyStore(t *testing.T) {
	s, adapter := newTestStore(t)
	if _, err := s.UploadVideo(context.Background(), VideoInput{
		Title: "T", Description: "D", VideoURL: "u",
	}); err != nil {
		t.Fatalf("upload: %v", err)
	}

	reloaded := New(adapter)
	if err := reloaded.Initialize(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(reloaded.Videos()); got != 3 {
		t.Fatalf("expected 3 videos after reload, got %d", got)
	}
}

func TestUploadVideoSetsGeneratedFields(t *testing.T) {
	s, _ := newTestStore(t)
	before := time.Now().UTC()

	video, err := s.UploadVideo(context.Background(), VideoInput{
		Title:       "T",
		Description: "D",
		VideoURL:    "u",
		TutorID:     "tutor1",
		TutorName:   "John Doe",
		Duration:    1800,
		Category:    "Programming",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if video.ID == "" || video.ID == "1" || video.ID == "2" {
		t.Fatalf("expected fresh id, got %q", video.ID)
	}
	if video.Views != 0 || video.Likes != 0 {
		t.Fatalf("expected zeroed counters, got views=%d likes=%d", video.Views, video.Likes)
	}
	if video.CreatedAt.Before(before) || video.CreatedAt.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("createdAt not near now: %v", video.CreatedAt)
	}
	if got := len(s.Videos()); got != 3 {
		t.Fatalf("expected video appended, got %d", got)
	}
}

func TestUploadVideoValidatesRequiredFields(t *testing.T) {
	s, _ := newTestStore(t)

	cases := []struct {
		name  string
		input VideoInput
		field string
	}{
		{"missing title", VideoInput{Description: "D", VideoURL: "u"}, "title"},
		{"missing description", VideoInput{Title: "T", VideoURL: "u"}, "description"},
		{"missing url", VideoInput{Title: "T", Description: "D"}, "videoUrl"},
	}
	for _, tc := range cases {
		_, err := s.UploadVideo(context.Background(), tc.input)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if verr.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", tc.name, tc.field, verr.Field)
		}
	}
	if got := len(s.Videos()); got != 2 {
		t.Fatalf("rejected upload mutated state: %d videos", got)
	}
}

func TestToggleLikeMaintainsCounterInvariant(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	base, _ := s.VideoByID("1")
	users := []string{"u1", "u2", "u3"}
	for _, u := range users {
		if _, err := s.ToggleLike(ctx, "1", u); err != nil {
			t.Fatalf("like %s: %v", u, err)
		}
	}
	// u2 unlikes.
	if _, err := s.ToggleLike(ctx, "1", "u2"); err != nil {
		t.Fatalf("unlike u2: %v", err)
	}

	video, _ := s.VideoByID("1")
	if video.Likes != base.Likes+2 {
		t.Fatalf("counter drifted: want %d, got %d", base.Likes+2, video.Likes)
	}
	if !s.IsLiked("1", "u1") || s.IsLiked("1", "u2") || !s.IsLiked("1", "u3") {
		t.Fatalf("like membership wrong after toggles")
	}
}

func TestToggleLikeTwiceRestoresOriginalState(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	base, _ := s.VideoByID("1")
	liked, err := s.ToggleLike(ctx, "1", "u1")
	if err != nil || !liked {
		t.Fatalf("first toggle: liked=%v err=%v", liked, err)
	}
	liked, err = s.ToggleLike(ctx, "1", "u1")
	if err != nil || liked {
		t.Fatalf("second toggle: liked=%v err=%v", liked, err)
	}

	video, _ := s.VideoByID("1")
	if video.Likes != base.Likes {
		t.Fatalf("counter changed after double toggle: want %d, got %d", base.Likes, video.Likes)
	}
	if s.IsLiked("1", "u1") {
		t.Fatalf("like row left behind")
	}
}

func TestToggleLikeNeverDuplicatesPair(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.ToggleLike(ctx, "1", "u1"); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	pairs := make(map[string]int)
	for _, like := range s.Likes() {
		pairs[like.UserID+"/"+like.VideoID]++
	}
	if pairs["u1/1"] != 1 {
		t.Fatalf("expected exactly one like row for (u1,1), got %d", pairs["u1/1"])
	}
	if !s.IsLiked("1", "u1") {
		t.Fatalf("expected liked after odd number of toggles")
	}
	video, _ := s.VideoByID("1")
	if video.Likes != 90 {
		t.Fatalf("expected counter 90 after odd toggles over seed 89, got %d", video.Likes)
	}
}

func TestToggleLikeOnUnknownVideoKeepsCountersSane(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	liked, err := s.ToggleLike(ctx, "ghost", "u1")
	if err != nil || !liked {
		t.Fatalf("like unknown video: liked=%v err=%v", liked, err)
	}
	if !s.IsLiked("ghost", "u1") {
		t.Fatalf("soft-referenced like not recorded")
	}
	for _, v := range s.Videos() {
		if v.Likes < 0 {
			t.Fatalf("negative counter on %s", v.ID)
		}
	}
}

func TestToggleSubscription(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	subscribed, err := s.ToggleSubscription(ctx, "t1", "s1")
	if err != nil || !subscribed {
		t.Fatalf("subscribe: subscribed=%v err=%v", subscribed, err)
	}
	if got := s.SubscriptionCount("t1"); got != 1 {
		t.Fatalf("expected count 1, got %d", got)
	}

	subscribed, err = s.ToggleSubscription(ctx, "t1", "s1")
	if err != nil || subscribed {
		t.Fatalf("unsubscribe: subscribed=%v err=%v", subscribed, err)
	}
	if got := s.SubscriptionCount("t1"); got != 0 {
		t.Fatalf("expected count 0, got %d", got)
	}
}

func TestAddToHistoryUpdatesInPlace(t *testing.T) {
	adapter := persist.NewMemoryAdapter()
	clock := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	s := New(adapter, WithClock(func() time.Time { return clock }))
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ctx := context.Background()

	if err := s.AddToHistory(ctx, "1", "u1"); err != nil {
		t.Fatalf("first watch: %v", err)
	}
	if err := s.UpdateProgress(ctx, "1", "u1", 600); err != nil {
		t.Fatalf("progress: %v", err)
	}

	clock = clock.Add(time.Hour)
	if err := s.AddToHistory(ctx, "1", "u1"); err != nil {
		t.Fatalf("second watch: %v", err)
	}

	entries := s.HistoryForUser("u1")
	if len(entries) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(entries))
	}
	if !entries[0].History.WatchedAt.Equal(clock) {
		t.Fatalf("watchedAt not refreshed: %v", entries[0].History.WatchedAt)
	}
	if entries[0].History.Progress != 600 {
		t.Fatalf("progress clobbered by re-watch: %d", entries[0].History.Progress)
	}
}

func TestUpdateProgressClampsToDuration(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.AddToHistory(ctx, "1", "u1"); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := s.UpdateProgress(ctx, "1", "u1", 99999); err != nil {
		t.Fatalf("progress: %v", err)
	}
	entries := s.HistoryForUser("u1")
	if entries[0].History.Progress != 1800 {
		t.Fatalf("expected clamp to duration 1800, got %d", entries[0].History.Progress)
	}

	if err := s.UpdateProgress(ctx, "1", "u1", -5); err != nil {
		t.Fatalf("negative progress: %v", err)
	}
	if got := s.HistoryForUser("u1")[0].History.Progress; got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
}

func TestMutationsSurviveReload(t *testing.T) {
	s, adapter := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AddComment(ctx, "1", "great video", "u1", "Ada"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := s.ToggleLike(ctx, "1", "u1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := s.ToggleSubscription(ctx, "tutor1", "u1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := s.AddToHistory(ctx, "2", "u1"); err != nil {
		t.Fatalf("watch: %v", err)
	}
	original, _ := s.VideoByID("1")

	reloaded := New(adapter)
	if err := reloaded.Initialize(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	video, ok := reloaded.VideoByID("1")
	if !ok {
		t.Fatalf("video lost on reload")
	}
	if video.Likes != original.Likes {
		t.Fatalf("counter lost: want %d, got %d", original.Likes, video.Likes)
	}
	if !video.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("timestamp did not round-trip: %v vs %v", video.CreatedAt, original.CreatedAt)
	}
	if !reloaded.IsLiked("1", "u1") || !reloaded.IsSubscribed("tutor1", "u1") {
		t.Fatalf("membership lost on reload")
	}
	if len(reloaded.HistoryForUser("u1")) != 1 {
		t.Fatalf("history lost on reload")
	}
	comments := 0
	for range reloaded.CommentsByVideo("1") {
		comments++
	}
	if comments != 1 {
		t.Fatalf("comments lost on reload: %d", comments)
	}
}

type failingAdapter struct {
	*persist.MemoryAdapter
	fail bool
}

func (f *failingAdapter) Save(ctx context.Context, collection string, data []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryAdapter.Save(ctx, collection, data)
}

func TestSaveFailureIsDurabilityWarning(t *testing.T) {
	adapter := &failingAdapter{MemoryAdapter: persist.NewMemoryAdapter()}
	s := New(adapter)
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	adapter.fail = true
	_, err := s.AddComment(context.Background(), "1", "still counts", "u1", "Ada")
	if err == nil {
		t.Fatalf("expected durability warning")
	}
	if !IsDurabilityWarning(err) {
		t.Fatalf("expected durability warning, got %v", err)
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		t.Fatalf("durability warning misclassified as validation error")
	}

	// The in-memory mutation stands.
	count := 0
	for range s.CommentsByVideo("1") {
		count++
	}
	if count != 1 {
		t.Fatalf("in-memory mutation dropped on save failure")
	}
}

func TestOnChangeNotifiesPerCollection(t *testing.T) {
	adapter := persist.NewMemoryAdapter()
	s := New(adapter)
	changed := make(map[string]int)
	s.OnChange(func(collection string) { changed[collection]++ })
	ctx := context.Background()

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if changed[persist.CollectionVideos] != 1 {
		t.Fatalf("seed did not notify videos: %v", changed)
	}

	if _, err := s.ToggleLike(ctx, "1", "u1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if changed[persist.CollectionLikes] != 1 || changed[persist.CollectionVideos] != 2 {
		t.Fatalf("toggleLike notifications wrong: %v", changed)
	}

	if _, err := s.ToggleSubscription(ctx, "t1", "s1"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if changed[persist.CollectionSubscriptions] != 1 {
		t.Fatalf("subscription notification missing: %v", changed)
	}
}

func TestGradesAndCourses(t *testing.T) {
	s, adapter := newTestStore(t)
	ctx := context.Background()

	grade, err := s.AddGrade(ctx, "Grade 10", "Second year of high school")
	if err != nil {
		t.Fatalf("add grade: %v", err)
	}
	if _, err := s.AddCourse(ctx, "Web Development", "HTML to React"); err != nil {
		t.Fatalf("add course: %v", err)
	}
	if _, err := s.AddGrade(ctx, "", ""); err == nil {
		t.Fatalf("expected validation error for empty grade name")
	}

	if err := s.DeleteGrade(ctx, grade.ID); err != nil {
		t.Fatalf("delete grade: %v", err)
	}
	if got := len(s.Grades()); got != 0 {
		t.Fatalf("expected 0 grades after delete, got %d", got)
	}

	reloaded := New(adapter)
	if err := reloaded.Initialize(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := len(reloaded.Courses()); got != 1 {
		t.Fatalf("course lost on reload: %d", got)
	}
}
