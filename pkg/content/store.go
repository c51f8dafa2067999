package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"alamedalearn/internal/util"
	"alamedalearn/pkg/domain"
	"alamedalearn/pkg/persist"
)

// Store owns the video, comment, like, subscription, and watch-history
// collections for the lifetime of the process. Every mutation applies in
// memory first and then writes the whole affected collection through to the
// persistence adapter before returning.
//
// All operations are safe for concurrent use; a single lock serializes
// mutations so the toggle operations' check-then-act cycles cannot interleave.
type Store struct {
	mu      sync.RWMutex
	adapter persist.Adapter

	videos        []domain.Video
	comments      []domain.Comment
	likes         []domain.Like
	subscriptions []domain.Subscription
	history       []domain.VideoHistory
	grades        []domain.Grade
	courses       []domain.Course

	observers   []func(collection string)
	now         func() time.Time
	newID       func() string
	initialized bool
}

// Option customizes a Store; used by tests to inject clock and id generation.
type Option func(*Store)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides record id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New constructs a Store over the given adapter. Call Initialize before any
// other operation.
func New(adapter persist.Adapter, opts ...Option) *Store {
	s := &Store{
		adapter: adapter,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   util.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers an observer invoked with the collection name after each
// mutation, post write-through. Observers run under the store lock and must
// not call back into mutating operations.
func (s *Store) OnChange(fn func(collection string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Initialize loads all collections from the adapter, seeding the built-in
// sample videos when the video collection is absent or empty. Calling it
// twice is a no-op; the seed is never duplicated.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	loadCollection(ctx, s.adapter, persist.CollectionVideos, &s.videos)
	loadCollection(ctx, s.adapter, persist.CollectionComments, &s.comments)
	loadCollection(ctx, s.adapter, persist.CollectionLikes, &s.likes)
	loadCollection(ctx, s.adapter, persist.CollectionSubscriptions, &s.subscriptions)
	loadCollection(ctx, s.adapter, persist.CollectionVideoHistory, &s.history)
	loadCollection(ctx, s.adapter, persist.CollectionGrades, &s.grades)
	loadCollection(ctx, s.adapter, persist.CollectionCourses, &s.courses)

	s.initialized = true

	if len(s.videos) == 0 {
		s.videos = sampleVideos()
		if err := s.persist(ctx, persist.CollectionVideos, s.videos); err != nil {
			return err
		}
		s.notify(persist.CollectionVideos)
	}
	return nil
}

// loadCollection treats load failures and corrupt payloads as an absent
// collection; startup is never fatal on bad durable state.
func loadCollection[T any](ctx context.Context, adapter persist.Adapter, name string, dst *[]T) {
	data, ok, err := adapter.Load(ctx, name)
	if err != nil || !ok {
		if err != nil {
			util.LoggerFromContext(ctx).Warn("collection load failed, starting empty", "collection", name, "err", err)
		}
		return
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		util.LoggerFromContext(ctx).Warn("collection corrupt, starting empty", "collection", name, "err", err)
		return
	}
	*dst = records
}

// VideoInput carries the caller-supplied fields of a new video. ID, views,
// likes, and createdAt are always generated by the store.
type VideoInput struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ThumbnailURL string   `json:"thumbnailUrl"`
	VideoURL     string   `json:"videoUrl"`
	TutorID      string   `json:"tutorId"`
	TutorName    string   `json:"tutorName"`
	TutorAvatar  string   `json:"tutorAvatar,omitempty"`
	Duration     int      `json:"duration"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
}

// UploadVideo appends a new video with a fresh id, zeroed counters, and the
// current timestamp, and persists the video collection.
func (s *Store) UploadVideo(ctx context.Context, input VideoInput) (domain.Video, error) {
	if err := validateVideoInput(input); err != nil {
		return domain.Video{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	video := domain.Video{
		ID:           s.newID(),
		Title:        input.Title,
		Description:  input.Description,
		ThumbnailURL: input.ThumbnailURL,
		VideoURL:     input.VideoURL,
		TutorID:      input.TutorID,
		TutorName:    input.TutorName,
		TutorAvatar:  input.TutorAvatar,
		Duration:     input.Duration,
		Views:        0,
		Likes:        0,
		CreatedAt:    s.now(),
		Category:     input.Category,
		Tags:         input.Tags,
	}
	s.videos = append(s.videos, video)
	err := s.persist(ctx, persist.CollectionVideos, s.videos)
	s.notify(persist.CollectionVideos)
	return video, err
}

func validateVideoInput(input VideoInput) error {
	switch {
	case strings.TrimSpace(input.Title) == "":
		return &ValidationError{Field: "title"}
	case strings.TrimSpace(input.Description) == "":
		return &ValidationError{Field: "description"}
	case strings.TrimSpace(input.VideoURL) == "":
		return &ValidationError{Field: "videoUrl"}
	}
	return nil
}

// AddComment appends a comment. The referenced video is not required to
// exist: comments are soft references, filtered out at read time when
// orphaned.
func (s *Store) AddComment(ctx context.Context, videoID, content, userID, userName string) (domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return domain.Comment{}, &ValidationError{Field: "content"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	comment := domain.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		UserID:    userID,
		UserName:  userName,
		Content:   content,
		CreatedAt: s.now(),
		Likes:     0,
	}
	s.comments = append(s.comments, comment)
	err := s.persist(ctx, persist.CollectionComments, s.comments)
	s.notify(persist.CollectionComments)
	return comment, err
}

// ToggleLike inserts a like for (userID, videoID) or removes the existing
// one. The video's materialized like counter changes in the same critical
// section, so counter and like-row existence move together. Liked reports
// the state after the toggle.
func (s *Store) ToggleLike(ctx context.Context, videoID, userID string) (liked bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, like := range s.likes {
		if like.VideoID == videoID && like.UserID == userID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.likes = append(s.likes[:idx], s.likes[idx+1:]...)
		s.adjustLikeCounter(videoID, -1)
		liked = false
	} else {
		s.likes = append(s.likes, domain.Like{
			ID:        s.newID(),
			UserID:    userID,
			VideoID:   videoID,
			CreatedAt: s.now(),
		})
		s.adjustLikeCounter(videoID, +1)
		liked = true
	}

	err = errors.Join(
		s.persist(ctx, persist.CollectionLikes, s.likes),
		s.persist(ctx, persist.CollectionVideos, s.videos),
	)
	s.notify(persist.CollectionLikes)
	s.notify(persist.CollectionVideos)
	return liked, err
}

// adjustLikeCounter floors the cached counter at zero; a soft-referenced
// video that does not exist has no counter to maintain.
func (s *Store) adjustLikeCounter(videoID string, delta int) {
	for i := range s.videos {
		if s.videos[i].ID != videoID {
			continue
		}
		s.videos[i].Likes += delta
		if s.videos[i].Likes < 0 {
			s.videos[i].Likes = 0
		}
		return
	}
}

// ToggleSubscription inserts or removes the (studentID, tutorID)
// subscription. There is no materialized counter; subscription counts are
// always computed on read. Subscribed reports the state after the toggle.
func (s *Store) ToggleSubscription(ctx context.Context, tutorID, studentID string) (subscribed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, sub := range s.subscriptions {
		if sub.TutorID == tutorID && sub.StudentID == studentID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		s.subscriptions = append(s.subscriptions[:idx], s.subscriptions[idx+1:]...)
		subscribed = false
	} else {
		s.subscriptions = append(s.subscriptions, domain.Subscription{
			ID:        s.newID(),
			StudentID: studentID,
			TutorID:   tutorID,
			CreatedAt: s.now(),
		})
		subscribed = true
	}
	err = s.persist(ctx, persist.CollectionSubscriptions, s.subscriptions)
	s.notify(persist.CollectionSubscriptions)
	return subscribed, err
}

// AddToHistory records a watch event. An existing (userID, videoID) row gets
// its watchedAt refreshed in place, progress untouched; otherwise a new row
// starts at progress 0.
func (s *Store) AddToHistory(ctx context.Context, videoID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := false
	for i := range s.history {
		if s.history[i].VideoID == videoID && s.history[i].UserID == userID {
			s.history[i].WatchedAt = s.now()
			updated = true
			break
		}
	}
	if !updated {
		s.history = append(s.history, domain.VideoHistory{
			ID:        s.newID(),
			UserID:    userID,
			VideoID:   videoID,
			WatchedAt: s.now(),
			Progress:  0,
		})
	}
	err := s.persist(ctx, persist.CollectionVideoHistory, s.history)
	s.notify(persist.CollectionVideoHistory)
	return err
}

// UpdateProgress stores playback position for an existing history row. The
// value clamps to [0, duration] when the video resolves; for an orphaned row
// it only floors at zero. A missing history row is created first, matching
// the player behavior of recording the watch before progress ticks.
func (s *Store) UpdateProgress(ctx context.Context, videoID, userID string, seconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	for i := range s.videos {
		if s.videos[i].ID == videoID {
			if d := s.videos[i].Duration; seconds > d {
				seconds = d
			}
			break
		}
	}

	found := false
	for i := range s.history {
		if s.history[i].VideoID == videoID && s.history[i].UserID == userID {
			s.history[i].Progress = seconds
			found = true
			break
		}
	}
	if !found {
		s.history = append(s.history, domain.VideoHistory{
			ID:        s.newID(),
			UserID:    userID,
			VideoID:   videoID,
			WatchedAt: s.now(),
			Progress:  seconds,
		})
	}
	err := s.persist(ctx, persist.CollectionVideoHistory, s.history)
	s.notify(persist.CollectionVideoHistory)
	return err
}

// AddGrade creates a grade.
func (s *Store) AddGrade(ctx context.Context, name, description string) (domain.Grade, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Grade{}, &ValidationError{Field: "name"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	grade := domain.Grade{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}
	s.grades = append(s.grades, grade)
	err := s.persist(ctx, persist.CollectionGrades, s.grades)
	s.notify(persist.CollectionGrades)
	return grade, err
}

// DeleteGrade removes a grade by id. Unknown ids are tolerated.
func (s *Store) DeleteGrade(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.grades[:0]
	for _, g := range s.grades {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	s.grades = kept
	err := s.persist(ctx, persist.CollectionGrades, s.grades)
	s.notify(persist.CollectionGrades)
	return err
}

// AddCourse creates a course.
func (s *Store) AddCourse(ctx context.Context, name, description string) (domain.Course, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Course{}, &ValidationError{Field: "name"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	course := domain.Course{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now(),
	}
	s.courses = append(s.courses, course)
	err := s.persist(ctx, persist.CollectionCourses, s.courses)
	s.notify(persist.CollectionCourses)
	return course, err
}

// DeleteCourse removes a course by id. Unknown ids are tolerated.
func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.courses[:0]
	for _, c := range s.courses {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.courses = kept
	err := s.persist(ctx, persist.CollectionCourses, s.courses)
	s.notify(persist.CollectionCourses)
	return err
}

// persist serializes the whole collection and writes it through. A write
// failure surfaces as a durability warning; the in-memory mutation stands.
func (s *Store) persist(ctx context.Context, collection string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w: %w", collection, err, ErrDurability)
	}
	if err := s.adapter.Save(ctx, collection, data); err != nil {
		return fmt.Errorf("save %s: %w: %w", collection, err, ErrDurability)
	}
	return nil
}

func (s *Store) notify(collection string) {
	for _, fn := range s.observers {
		fn(collection)
	}
}
