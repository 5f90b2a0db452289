package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kazadi/maktaba/core/note"
)

// noteRepository keeps the whole DB handle; the public listing joins notes
// with their owners' names.
type noteRepository struct {
	db *DB
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *DB) *noteRepository {
	return &noteRepository{db: db}
}

func (repo *noteRepository) query() []note.Note {
	notes := make([]note.Note, 0, len(repo.db.note.table))
	for _, n := range repo.db.note.table {
		notes = append(notes, *n)
	}
	return notes
}

// sortNewestFirst orders by created_at DESC, id DESC.
func sortNewestFirst(notes []note.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		}
		return notes[i].ID > notes[j].ID
	})
}

func (repo *noteRepository) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	repo.db.note.mutex.Lock()
	defer repo.db.note.mutex.Unlock()

	n.ID = uuid.New().String()
	repo.db.note.table[n.ID] = &n
	return n, nil
}

func (repo *noteRepository) GetNoteByID(ctx context.Context, id string) (note.Note, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()

	if n, ok := repo.db.note.table[id]; ok {
		return *n, nil
	}
	return note.Note{}, note.ErrNotFound
}

func (repo *noteRepository) GetNoteByFilename(ctx context.Context, filename string) (note.Note, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()

	for _, n := range repo.query() {
		if n.Filename == filename {
			return n, nil
		}
	}
	return note.Note{}, note.ErrNotFound
}

func (repo *noteRepository) QueryNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()

	notes := make([]note.Note, 0)
	for _, n := range repo.query() {
		if n.OwnerID == ownerID {
			notes = append(notes, n)
		}
	}
	sortNewestFirst(notes)
	return notes, nil
}

func (repo *noteRepository) ownerName(id string) string {
	repo.db.user.mutex.RLock()
	defer repo.db.user.mutex.RUnlock()

	if usr, ok := repo.db.user.table[id]; ok {
		return usr.Name
	}
	return ""
}

func (repo *noteRepository) noteReviews(noteID string) []note.ReviewInfo {
	reviews := make([]note.ReviewInfo, 0)
	for _, rev := range repo.db.note.reviews {
		if rev.NoteID == noteID {
			reviews = append(reviews, note.ReviewInfo{
				Text:      rev.Text,
				UserName:  repo.ownerName(rev.UserID),
				CreatedAt: rev.CreatedAt,
			})
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
	return reviews
}

func (repo *noteRepository) QueryPublicNotes(ctx context.Context) ([]note.PublicNote, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()

	pub := make([]note.Note, 0)
	for _, n := range repo.query() {
		if n.IsPublic {
			pub = append(pub, n)
		}
	}
	sortNewestFirst(pub)
	sort.SliceStable(pub, func(i, j int) bool { return pub[i].TrendingScore() > pub[j].TrendingScore() })

	notes := make([]note.PublicNote, 0, len(pub))
	for _, n := range pub {
		notes = append(notes, note.PublicNote{
			Note:          n,
			OwnerName:     repo.ownerName(n.OwnerID),
			TrendingScore: n.TrendingScore(),
			Reviews:       repo.noteReviews(n.ID),
		})
	}
	return notes, nil
}

func (repo *noteRepository) IncrementDownloads(ctx context.Context, filename string) (note.Note, error) {
	repo.db.note.mutex.Lock()
	defer repo.db.note.mutex.Unlock()

	for _, n := range repo.db.note.table {
		if n.Filename == filename {
			n.Downloads++
			n.UpdatedAt = time.Now().UTC()
			return *n, nil
		}
	}
	return note.Note{}, note.ErrNotFound
}

func (repo *noteRepository) UpsertRating(ctx context.Context, userID, noteID string, value int) (note.Note, error) {
	repo.db.note.mutex.Lock()
	defer repo.db.note.mutex.Unlock()

	n, ok := repo.db.note.table[noteID]
	if !ok {
		return note.Note{}, note.ErrNotFound
	}

	repo.db.note.ratings[ratingKey{userID: userID, noteID: noteID}] = value

	var sum, cnt int
	for key, v := range repo.db.note.ratings {
		if key.noteID == noteID {
			sum += v
			cnt++
		}
	}
	n.Rating = float64(sum) / float64(cnt)
	n.RatingCount = cnt
	n.UpdatedAt = time.Now().UTC()
	return *n, nil
}

func (repo *noteRepository) CreateReview(ctx context.Context, rev note.Review) (note.Review, error) {
	repo.db.note.mutex.Lock()
	defer repo.db.note.mutex.Unlock()

	rev.ID = uuid.New().String()
	repo.db.note.reviews = append(repo.db.note.reviews, rev)
	return rev, nil
}

func (repo *noteRepository) CreateBookmark(ctx context.Context, userID, noteID string) error {
	repo.db.note.mutex.Lock()
	defer repo.db.note.mutex.Unlock()

	repo.db.note.bookmarks[ratingKey{userID: userID, noteID: noteID}] = struct{}{}
	return nil
}

func (repo *noteRepository) DeleteBookmark(ctx context.Context, userID, noteID string) error {
	repo.db.note.mutex.Lock()
	defer repo.db.note.mutex.Unlock()

	delete(repo.db.note.bookmarks, ratingKey{userID: userID, noteID: noteID})
	return nil
}

func (repo *noteRepository) QueryBookmarkedNotes(ctx context.Context, userID string) ([]note.Note, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()

	notes := make([]note.Note, 0)
	for key := range repo.db.note.bookmarks {
		if key.userID != userID {
			continue
		}
		if n, ok := repo.db.note.table[key.noteID]; ok {
			notes = append(notes, *n)
		}
	}
	sortNewestFirst(notes)
	return notes, nil
}

func (repo *noteRepository) OwnerAnalytics(ctx context.Context, ownerID string) (note.Analytics, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()

	var a note.Analytics
	perSubject := make(map[string]int)
	for _, n := range repo.query() {
		if n.OwnerID != ownerID {
			continue
		}
		a.TotalNotes++
		a.TotalDownloads += n.Downloads
		perSubject[n.Subject]++
	}

	a.Subjects = make([]note.SubjectCount, 0, len(perSubject))
	for subject, cnt := range perSubject {
		a.Subjects = append(a.Subjects, note.SubjectCount{Subject: subject, Count: cnt})
	}
	sort.SliceStable(a.Subjects, func(i, j int) bool {
		if a.Subjects[i].Count != a.Subjects[j].Count {
			return a.Subjects[i].Count > a.Subjects[j].Count
		}
		return a.Subjects[i].Subject < a.Subjects[j].Subject
	})
	return a, nil
}

func (repo *noteRepository) CountNotes(ctx context.Context) (int, error) {
	repo.db.note.mutex.RLock()
	defer repo.db.note.mutex.RUnlock()
	return len(repo.db.note.table), nil
}
