package content

import (
	"iter"
	"strings"

	"alamedalearn/pkg/domain"
)

// Derived views: pure queries over the current snapshot. All returned slices
// are copies; callers may not observe later mutations through them.

// Videos returns the full video collection in insertion order.
func (s *Store) Videos() []domain.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Video(nil), s.videos...)
}

// Comments returns the full comment collection in insertion order.
func (s *Store) Comments() []domain.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Comment(nil), s.comments...)
}

// Likes returns the full like collection in insertion order.
func (s *Store) Likes() []domain.Like {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Like(nil), s.likes...)
}

// Subscriptions returns the full subscription collection in insertion order.
func (s *Store) Subscriptions() []domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Subscription(nil), s.subscriptions...)
}

// History returns the full watch-history collection in insertion order.
func (s *Store) History() []domain.VideoHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.VideoHistory(nil), s.history...)
}

// Grades returns the grade collection in insertion order.
func (s *Store) Grades() []domain.Grade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Grade(nil), s.grades...)
}

// Courses returns the course collection in insertion order.
func (s *Store) Courses() []domain.Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Course(nil), s.courses...)
}

// VideoByID returns the video and whether it exists.
func (s *Store) VideoByID(id string) (domain.Video, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.videos {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Video{}, false
}

// CommentsByVideo yields the comments for a video in insertion order. Each
// call takes an independent snapshot, so the sequence is restartable and
// unaffected by later mutations.
func (s *Store) CommentsByVideo(videoID string) iter.Seq[domain.Comment] {
	s.mu.RLock()
	snapshot := append([]domain.Comment(nil), s.comments...)
	s.mu.RUnlock()
	return func(yield func(domain.Comment) bool) {
		for _, c := range snapshot {
			if c.VideoID != videoID {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// IsLiked reports whether the user has liked the video.
func (s *Store) IsLiked(videoID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, like := range s.likes {
		if like.VideoID == videoID && like.UserID == userID {
			return true
		}
	}
	return false
}

// IsSubscribed reports whether the student subscribes to the tutor.
func (s *Store) IsSubscribed(tutorID, studentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscriptions {
		if sub.TutorID == tutorID && sub.StudentID == studentID {
			return true
		}
	}
	return false
}

// SubscriptionCount counts the tutor's subscribers.
func (s *Store) SubscriptionCount(tutorID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sub := range s.subscriptions {
		if sub.TutorID == tutorID {
			count++
		}
	}
	return count
}

// TutorVideos returns the tutor's videos in insertion order.
func (s *Store) TutorVideos(tutorID string) []domain.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Video
	for _, v := range s.videos {
		if v.TutorID == tutorID {
			out = append(out, v)
		}
	}
	return out
}

// Search filters videos by a case-insensitive substring match across title,
// description, and tutor name, ANDed with category equality. An empty term
// matches everything; category "" or "all" disables the category filter.
func (s *Store) Search(term, category string) []domain.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	term = strings.ToLower(strings.TrimSpace(term))
	filterCategory := category != "" && !strings.EqualFold(category, "all")

	var out []domain.Video
	for _, v := range s.videos {
		if filterCategory && v.Category != category {
			continue
		}
		if term != "" && !matchesTerm(v, term) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func matchesTerm(v domain.Video, term string) bool {
	return strings.Contains(strings.ToLower(v.Title), term) ||
		strings.Contains(strings.ToLower(v.Description), term) ||
		strings.Contains(strings.ToLower(v.TutorName), term)
}

// HistoryEntry pairs a watch-history row with its resolved video.
type HistoryEntry struct {
	History domain.VideoHistory `json:"history"`
	Video   domain.Video        `json:"video"`
}

// HistoryForUser resolves the user's watch history to videos, dropping rows
// whose video no longer resolves (soft references).
func (s *Store) HistoryForUser(userID string) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []HistoryEntry
	for _, h := range s.history {
		if h.UserID != userID {
			continue
		}
		for _, v := range s.videos {
			if v.ID == h.VideoID {
				out = append(out, HistoryEntry{History: h, Video: v})
				break
			}
		}
	}
	return out
}

// SubscriptionFeed returns all videos by tutors the student subscribes to.
func (s *Store) SubscriptionFeed(studentID string) []domain.Video {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tutors := make(map[string]struct{})
	for _, sub := range s.subscriptions {
		if sub.StudentID == studentID {
			tutors[sub.TutorID] = struct{}{}
		}
	}
	var out []domain.Video
	for _, v := range s.videos {
		if _, ok := tutors[v.TutorID]; ok {
			out = append(out, v)
		}
	}
	return out
}
