package persist

import "context"

// Collection names of the durable store. Every adapter keys its payloads by
// these names; the content store owns the record encoding (JSON arrays with
// RFC 3339 UTC timestamps, applied uniformly).
const (
	CollectionVideos        = "videos"
	CollectionComments      = "comments"
	CollectionLikes         = "likes"
	CollectionSubscriptions = "subscriptions"
	CollectionVideoHistory  = "videoHistory"
	CollectionGrades        = "grades"
	CollectionCourses       = "courses"
)

// Adapter is a durability sink for named collections. It holds no independent
// copy of the data: the content store writes through after each mutation and
// reads once at startup.
type Adapter interface {
	// Load returns the serialized collection, or ok=false when the
	// collection has never been saved.
	Load(ctx context.Context, collection string) (data []byte, ok bool, err error)
	// Save replaces the entire serialized collection.
	Save(ctx context.Context, collection string, data []byte) error
}
