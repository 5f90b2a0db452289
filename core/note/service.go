package note

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound      = errors.New("note not found")
	ErrFileExtension = errors.New("file type not allowed")
	ErrFileTooLarge  = errors.New("file too large")
)

type (
	Repository interface {
		CreateNote(ctx context.Context, n Note) (Note, error)
		GetNoteByID(ctx context.Context, id string) (Note, error)
		GetNoteByFilename(ctx context.Context, filename string) (Note, error)
		QueryNotesByOwner(ctx context.Context, ownerID string) ([]Note, error)
		// QueryPublicNotes returns public notes annotated with owner name,
		// trending score and reviews (newest first), ordered by score
		// descending; ties order newest note first.
		QueryPublicNotes(ctx context.Context) ([]PublicNote, error)
		// IncrementDownloads bumps the download counter for a stored filename
		// and returns the updated note.
		IncrementDownloads(ctx context.Context, filename string) (Note, error)
		// UpsertRating inserts or replaces the (user, note) rating and
		// recomputes the note's cached mean and count in the same transaction.
		UpsertRating(ctx context.Context, userID, noteID string, value int) (Note, error)
		CreateReview(ctx context.Context, rev Review) (Review, error)
		CreateBookmark(ctx context.Context, userID, noteID string) error
		DeleteBookmark(ctx context.Context, userID, noteID string) error
		QueryBookmarkedNotes(ctx context.Context, userID string) ([]Note, error)
		OwnerAnalytics(ctx context.Context, ownerID string) (Analytics, error)
		CountNotes(ctx context.Context) (int, error)
	}

	// FileStore persists note payloads on disk under generated unique names.
	FileStore interface {
		// Save stores src under a new unique name derived from originalName.
		Save(originalName string, size int64, src io.Reader) (storedName string, err error)
		// Path resolves a stored name to an absolute path, rejecting names
		// that escape the store or do not exist.
		Path(storedName string) (string, error)
		Remove(storedName string) error
	}

	Service interface {
		Create(ctx context.Context, ownerID string, nn NewNote, filename string, size int64, src io.Reader) (Note, error)
		GetByID(ctx context.Context, id string) (Note, error)
		QueryByOwner(ctx context.Context, ownerID string) ([]Note, error)
		Public(ctx context.Context) ([]PublicNote, error)
		// Download increments the note's download counter and returns the
		// file path for streaming.
		Download(ctx context.Context, filename string) (string, error)
		Rate(ctx context.Context, userID, noteID string, value int) (Note, error)
		Review(ctx context.Context, userID, noteID, text string) (Review, error)
		Bookmark(ctx context.Context, userID, noteID string) error
		RemoveBookmark(ctx context.Context, userID, noteID string) error
		Bookmarks(ctx context.Context, userID string) ([]Note, error)
		Analytics(ctx context.Context, ownerID string) (Analytics, error)
		Count(ctx context.Context) (int, error)
	}

	service struct {
		repo  Repository
		files FileStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, files FileStore) *service {
	return &service{
		repo:  repo,
		files: files,
	}
}

// Create stores the uploaded file, derives tags and a summary from the note's
// title and subject, and inserts the note with zeroed counters.
func (svc *service) Create(ctx context.Context, ownerID string, nn NewNote, filename string, size int64, src io.Reader) (Note, error) {
	stored, err := svc.files.Save(filename, size, src)
	if err != nil {
		return Note{}, err
	}

	tags, summary := AutoTagSummary(nn.Title, nn.Subject)
	now := time.Now().UTC()
	n := Note{
		Title:     nn.Title,
		Subject:   nn.Subject,
		Filename:  stored,
		OwnerID:   ownerID,
		IsPublic:  nn.IsPublic,
		Tags:      tags,
		Summary:   summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	n, err = svc.repo.CreateNote(ctx, n)
	if err != nil {
		// do not leave the payload orphaned on disk
		_ = svc.files.Remove(stored)
		return Note{}, err
	}
	return n, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Note, error) {
	return svc.repo.GetNoteByID(ctx, id)
}

func (svc *service) QueryByOwner(ctx context.Context, ownerID string) ([]Note, error) {
	return svc.repo.QueryNotesByOwner(ctx, ownerID)
}

func (svc *service) Public(ctx context.Context) ([]PublicNote, error) {
	return svc.repo.QueryPublicNotes(ctx)
}

func (svc *service) Download(ctx context.Context, filename string) (string, error) {
	n, err := svc.repo.IncrementDownloads(ctx, filename)
	if err != nil {
		return "", err
	}
	return svc.files.Path(n.Filename)
}

// Rate submits a user's rating for a note. Re-rating replaces the prior value
// for the same (user, note) pair; the note's cached mean and count always
// reflect the full rating set afterwards.
func (svc *service) Rate(ctx context.Context, userID, noteID string, value int) (Note, error) {
	return svc.repo.UpsertRating(ctx, userID, noteID, value)
}

func (svc *service) Review(ctx context.Context, userID, noteID, text string) (Review, error) {
	if _, err := svc.repo.GetNoteByID(ctx, noteID); err != nil {
		return Review{}, err
	}
	rev := Review{
		UserID:    userID,
		NoteID:    noteID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateReview(ctx, rev)
}

func (svc *service) Bookmark(ctx context.Context, userID, noteID string) error {
	if _, err := svc.repo.GetNoteByID(ctx, noteID); err != nil {
		return err
	}
	return svc.repo.CreateBookmark(ctx, userID, noteID)
}

func (svc *service) RemoveBookmark(ctx context.Context, userID, noteID string) error {
	return svc.repo.DeleteBookmark(ctx, userID, noteID)
}

func (svc *service) Bookmarks(ctx context.Context, userID string) ([]Note, error) {
	return svc.repo.QueryBookmarkedNotes(ctx, userID)
}

func (svc *service) Analytics(ctx context.Context, ownerID string) (Analytics, error) {
	return svc.repo.OwnerAnalytics(ctx, ownerID)
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountNotes(ctx)
}
