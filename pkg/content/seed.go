package content

import (
	"time"

	"alamedalearn/pkg/domain"
)

// sampleVideos is the built-in catalog used when the durable store has no
// videos, so a fresh install is browsable immediately.
func sampleVideos() []domain.Video {
	return []domain.Video{
		{
			ID:           "1",
			Title:        "Introduction to React Hooks",
			Description:  "Learn the fundamentals of React Hooks and how to use them effectively in your applications.",
			ThumbnailURL: "https://images.pexels.com/photos/11035471/pexels-photo-11035471.jpeg?auto=compress&cs=tinysrgb&w=800",
			VideoURL:     "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_1mb.mp4",
			TutorID:      "tutor1",
			TutorName:    "John Doe",
			Duration:     1800,
			Views:        1250,
			Likes:        89,
			CreatedAt:    time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			Category:     "Programming",
			Tags:         []string{"React", "JavaScript", "Hooks"},
		},
		{
			ID:           "2",
			Title:        "Advanced CSS Animations",
			Description:  "Master CSS animations and transitions to create engaging user interfaces.",
			ThumbnailURL: "https://images.pexels.com/photos/1779487/pexels-photo-1779487.jpeg?auto=compress&cs=tinysrgb&w=800",
			VideoURL:     "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_2mb.mp4",
			TutorID:      "tutor2",
			TutorName:    "Jane Smith",
			Duration:     2100,
			Views:        890,
			Likes:        67,
			CreatedAt:    time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
			Category:     "Design",
			Tags:         []string{"CSS", "Animation", "Frontend"},
		},
	}
}
