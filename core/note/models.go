package note

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kazadi/maktaba/core"
)

// Note is an uploaded file plus metadata owned by a user. Rating and
// RatingCount are denormalized caches over the ratings table; they are only
// ever recomputed by the rating upsert, never edited independently.
type Note struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Filename    string    `json:"filename"` // stored file reference (unique)
	OwnerID     string    `json:"owner_id"`
	IsPublic    bool      `json:"is_public"`
	Downloads   int       `json:"downloads"`
	Rating      float64   `json:"rating"` // arithmetic mean of all ratings
	RatingCount int       `json:"rating_count"`
	Tags        []string  `json:"tags"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// TrendingScore derives the public listing rank for a note.
func (n Note) TrendingScore() float64 {
	return float64(n.Downloads)*2 + n.Rating*5 + float64(n.RatingCount)*3
}

// Rating is a user's score for a note; one row per (user, note) pair,
// overwritten on re-rating.
type Rating struct {
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
	Value  int    `json:"rating"`
}

// Review is an append-only user annotation on a note; no edit, no delete.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NoteID    string    `json:"note_id"`
	Text      string    `json:"review"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// ReviewInfo is a review joined with its author's name, as listed publicly.
type ReviewInfo struct {
	Text      string    `json:"review"`
	UserName  string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Bookmark struct {
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
}

// PublicNote is a note annotated for the public trending listing.
type PublicNote struct {
	Note
	OwnerName     string       `json:"owner_name"`
	TrendingScore float64      `json:"trending_score"`
	Reviews       []ReviewInfo `json:"reviews"`
}

type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

// Analytics summarizes a single user's uploads.
type Analytics struct {
	TotalNotes     int            `json:"total_notes"`
	TotalDownloads int            `json:"total_downloads"`
	Subjects       []SubjectCount `json:"subjects"`
}

// NewNote contains information needed to upload a new Note.
// Tags and Summary are always derived, never client-provided.
type NewNote struct {
	Title    string `json:"title" form:"title" validate:"required"`
	Subject  string `json:"subject" form:"subject" validate:"required"`
	IsPublic bool   `json:"is_public" form:"is_public"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Subject = core.CleanString(nn.Subject)
	return validate.Struct(nn)
}

type NewRating struct {
	Value int `json:"rating" form:"rating" validate:"required,min=1,max=5"`
}

func (nr NewRating) Validate(validate *validator.Validate) error {
	return validate.Struct(nr)
}

type NewReview struct {
	Text string `json:"review" form:"review" validate:"required"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Text = core.CleanString(nr.Text)
	return validate.Struct(nr)
}
