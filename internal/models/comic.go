package models

import "time"

// Draft job states reported by the generator service.
const (
	DraftJobPending    = "PENDING"
	DraftJobQueued     = "QUEUED"
	DraftJobProcessing = "PROCESSING"
	DraftJobCompleted  = "COMPLETED"
	DraftJobFailed     = "FAILED"
)

type Comic struct {
	ID     int `json:"id"`
	UserID int `json:"user_id"`

	StoryIdea *string  `json:"story_idea,omitempty"`
	Summary   *string  `json:"summary,omitempty"`
	Theme     *string  `json:"theme,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`

	Style     *string `json:"style,omitempty"`
	Mood      *string `json:"mood,omitempty"`
	PageCount *int    `json:"page_count,omitempty"`

	SelectedCharacterKey *string `json:"selected_character_key,omitempty"`
	SelectedBackgrounds  []int64 `json:"selected_backgrounds,omitempty"`

	Title     *string  `json:"title,omitempty"`
	Publisher *string  `json:"publisher,omitempty"`
	Genre     []string `json:"genre"`
	Synopsis  *string  `json:"synopsis,omitempty"`
	Tags      *string  `json:"tags,omitempty"`

	CoverURL          *string `json:"cover_url,omitempty"`
	PreviewVideoURL   *string `json:"preview_video_url,omitempty"`
	PDFURL            *string `json:"pdf_url,omitempty"`
	NarrationAudioURL *string `json:"narration_audio_url,omitempty"`

	DraftJobID     *string `json:"draft_job_id,omitempty"`
	DraftJobStatus *string `json:"draft_job_status,omitempty"`
	Layout         *string `json:"layout,omitempty"`

	TotalViews    int64 `json:"total_views"`
	TotalLikes    int64 `json:"total_likes"`
	TotalComments int64 `json:"total_comments"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished: a comic is public once it has both a title and a cover.
func (c *Comic) IsPublished() bool {
	return c.Title != nil && *c.Title != "" && c.CoverURL != nil && *c.CoverURL != ""
}

type ComicFilter struct {
	Genre  string
	Style  string
	Search string
}

type CreateStoryIdeaRequest struct {
	StoryIdea string  `json:"story_idea" binding:"required,min=10"`
	PageCount int     `json:"page_count" binding:"required,gte=1,lte=25"`
	GenreIDs  []int64 `json:"genre_ids" binding:"required,min=1"`
	StyleID   int64   `json:"style_id" binding:"required"`
}

type UpdateSummaryRequest struct {
	Summary string `json:"summary" binding:"required"`
}

type UpdateCharacterRequest struct {
	CharacterKey string `json:"character_key" binding:"required"`
}

type UpdateBackgroundsRequest struct {
	BackgroundIDs []int64 `json:"background_ids" binding:"required,min=1"`
}

type PublishComicRequest struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}

// DraftJob is what the external generator reports about a submitted job.
type DraftJob struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
