package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// Identity is the session payload supplied by the external identity
// provider. The service trusts it as given and does not validate it beyond
// the token signature check.
type Identity struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Categories recognized by the browse view. "all" is a filter wildcard, not
// a category, and is handled by the search helpers.
var Categories = []string{"Programming", "Design", "Business", "Science", "Language", "Other"}

type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
	VideoURL     string `json:"videoUrl"`
	TutorID      string `json:"tutorId"`
	// TutorName and TutorAvatar are denormalized at creation time and are
	// never re-synced if the tutor profile later changes.
	TutorName   string `json:"tutorName"`
	TutorAvatar string `json:"tutorAvatar,omitempty"`
	Duration    int    `json:"duration"`
	Views       int    `json:"views"`
	// Likes is a materialized counter kept in sync with the likes collection
	// by every like mutation; it is never recomputed at read time.
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"createdAt"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
}

// Comment is append-only; there is no edit or delete operation.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likes"`
}

// Like holds at most one row per (UserID, VideoID) pair.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Subscription holds at most one row per (StudentID, TutorID) pair.
type Subscription struct {
	ID        string    `json:"id"`
	StudentID string    `json:"studentId"`
	TutorID   string    `json:"tutorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// VideoHistory holds at most one row per (UserID, VideoID) pair; re-watching
// updates WatchedAt in place rather than appending a second row.
type VideoHistory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	VideoID   string    `json:"videoId"`
	WatchedAt time.Time `json:"watchedAt"`
	Progress  int       `json:"progress"`
}

// Grade and Course are catalog structures managed through the admin surface.
type Grade struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
