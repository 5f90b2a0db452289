package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core/note"
)

const noteColumns = `id, title, subject, filename, user_id, is_public, downloads, rating,
	total_ratings, tags, summary, created_at, updated_at`

type noteRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Subject     string         `db:"subject"`
	Filename    string         `db:"filename"`
	OwnerID     string         `db:"user_id"`
	IsPublic    bool           `db:"is_public"`
	Downloads   int            `db:"downloads"`
	Rating      float64        `db:"rating"`
	RatingCount int            `db:"total_ratings"`
	Tags        pq.StringArray `db:"tags"`
	Summary     string         `db:"summary"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r noteRow) toNote() note.Note {
	return note.Note{
		ID:          r.ID,
		Title:       r.Title,
		Subject:     r.Subject,
		Filename:    r.Filename,
		OwnerID:     r.OwnerID,
		IsPublic:    r.IsPublic,
		Downloads:   r.Downloads,
		Rating:      r.Rating,
		RatingCount: r.RatingCount,
		Tags:        r.Tags,
		Summary:     r.Summary,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func newNoteRow(n note.Note) noteRow {
	r := noteRow{
		ID:          n.ID,
		Title:       n.Title,
		Subject:     n.Subject,
		Filename:    n.Filename,
		OwnerID:     n.OwnerID,
		IsPublic:    n.IsPublic,
		Downloads:   n.Downloads,
		Rating:      n.Rating,
		RatingCount: n.RatingCount,
		Tags:        n.Tags,
		Summary:     n.Summary,
		CreatedAt:   n.CreatedAt.UTC(),
		UpdatedAt:   n.UpdatedAt.UTC(),
	}
	if r.Tags == nil {
		r.Tags = pq.StringArray{}
	}
	return r
}

type noteRepository struct {
	db *sqlx.DB
}

var _ note.Repository = (*noteRepository)(nil) // interface compliance check

func NewNoteRepository(db *sql.DB) *noteRepository {
	return &noteRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo noteRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return note.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo noteRepository) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	n.ID = uuid.New().String()
	r := newNoteRow(n)
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO notes (id, title, subject, filename, user_id, is_public, downloads, rating,
			total_ratings, tags, summary, created_at, updated_at)
		 VALUES (:id, :title, :subject, :filename, :user_id, :is_public, :downloads, :rating,
			:total_ratings, :tags, :summary, :created_at, :updated_at)`, r)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "inserting note")
	}
	return r.toNote(), nil
}

func (repo noteRepository) GetNoteByID(ctx context.Context, id string) (note.Note, error) {
	if _, err := uuid.Parse(id); err != nil {
		return note.Note{}, note.ErrNotFound
	}
	var r noteRow
	if err := repo.db.GetContext(ctx, &r, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id); err != nil {
		return note.Note{}, repo.trapNoRowsErr(err, "finding note by ID")
	}
	return r.toNote(), nil
}

func (repo noteRepository) GetNoteByFilename(ctx context.Context, filename string) (note.Note, error) {
	var r noteRow
	if err := repo.db.GetContext(ctx, &r, `SELECT `+noteColumns+` FROM notes WHERE filename = $1`, filename); err != nil {
		return note.Note{}, repo.trapNoRowsErr(err, "finding note by filename")
	}
	return r.toNote(), nil
}

func (repo noteRepository) QueryNotesByOwner(ctx context.Context, ownerID string) ([]note.Note, error) {
	var rows []noteRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+noteColumns+` FROM notes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes by owner")
	}
	notes := make([]note.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes, nil
}

// QueryPublicNotes lists public notes ordered by trending score descending.
// Ties order newest note first so the listing is a stable total order.
func (repo noteRepository) QueryPublicNotes(ctx context.Context) ([]note.PublicNote, error) {
	type publicRow struct {
		noteRow
		OwnerName     string  `db:"owner_name"`
		TrendingScore float64 `db:"trending_score"`
	}
	var rows []publicRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT n.id, n.title, n.subject, n.filename, n.user_id, n.is_public, n.downloads, n.rating,
			n.total_ratings, n.tags, n.summary, n.created_at, n.updated_at,
			u.name AS owner_name,
			(n.downloads * 2 + n.rating * 5 + n.total_ratings * 3) AS trending_score
		 FROM notes n
		 JOIN users u ON n.user_id = u.id
		 WHERE n.is_public
		 ORDER BY trending_score DESC, n.created_at DESC, n.id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying public notes")
	}

	type reviewRow struct {
		NoteID    string    `db:"note_id"`
		Text      string    `db:"review"`
		UserName  string    `db:"name"`
		CreatedAt time.Time `db:"created_at"`
	}
	var revRows []reviewRow
	err = repo.db.SelectContext(ctx, &revRows,
		`SELECT r.note_id, r.review, r.created_at, u.name
		 FROM reviews r
		 JOIN users u ON r.user_id = u.id
		 JOIN notes n ON r.note_id = n.id
		 WHERE n.is_public
		 ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying public note reviews")
	}
	reviews := make(map[string][]note.ReviewInfo, len(rows))
	for _, rr := range revRows {
		reviews[rr.NoteID] = append(reviews[rr.NoteID], note.ReviewInfo{
			Text:      rr.Text,
			UserName:  rr.UserName,
			CreatedAt: rr.CreatedAt,
		})
	}

	notes := make([]note.PublicNote, 0, len(rows))
	for _, r := range rows {
		revs := reviews[r.ID]
		if revs == nil {
			revs = []note.ReviewInfo{}
		}
		notes = append(notes, note.PublicNote{
			Note:          r.toNote(),
			OwnerName:     r.OwnerName,
			TrendingScore: r.TrendingScore,
			Reviews:       revs,
		})
	}
	return notes, nil
}

func (repo noteRepository) IncrementDownloads(ctx context.Context, filename string) (note.Note, error) {
	var r noteRow
	err := repo.db.GetContext(ctx, &r,
		`UPDATE notes SET downloads = downloads + 1, updated_at = $2 WHERE filename = $1
		 RETURNING `+noteColumns, filename, time.Now().UTC())
	if err != nil {
		return note.Note{}, repo.trapNoRowsErr(err, "incrementing downloads")
	}
	return r.toNote(), nil
}

// UpsertRating replaces the user's rating for the note and recomputes the
// note's cached mean and count, all in one transaction. The initial
// SELECT ... FOR UPDATE serializes concurrent submissions per note.
func (repo noteRepository) UpsertRating(ctx context.Context, userID, noteID string, value int) (note.Note, error) {
	if _, err := uuid.Parse(noteID); err != nil {
		return note.Note{}, note.ErrNotFound
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "beginning rating transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	if err = tx.GetContext(ctx, &id, `SELECT id FROM notes WHERE id = $1 FOR UPDATE`, noteID); err != nil {
		return note.Note{}, repo.trapNoRowsErr(err, "locking note for rating")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ratings (user_id, note_id, rating) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, note_id) DO UPDATE SET rating = EXCLUDED.rating`,
		userID, noteID, value)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "upserting rating")
	}

	var r noteRow
	err = tx.GetContext(ctx, &r,
		`UPDATE notes SET rating = agg.avg, total_ratings = agg.cnt, updated_at = $2
		 FROM (SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS cnt FROM ratings WHERE note_id = $1) agg
		 WHERE id = $1
		 RETURNING `+noteColumns, noteID, time.Now().UTC())
	if err != nil {
		return note.Note{}, errors.Wrap(err, "recomputing note rating")
	}

	if err = tx.Commit(); err != nil {
		return note.Note{}, errors.Wrap(err, "committing rating transaction")
	}
	return r.toNote(), nil
}

func (repo noteRepository) CreateReview(ctx context.Context, rev note.Review) (note.Review, error) {
	rev.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO reviews (id, user_id, note_id, review, created_at) VALUES ($1, $2, $3, $4, $5)`,
		rev.ID, rev.UserID, rev.NoteID, rev.Text, rev.CreatedAt.UTC())
	if err != nil {
		return note.Review{}, errors.Wrap(err, "inserting review")
	}
	return rev, nil
}

func (repo noteRepository) CreateBookmark(ctx context.Context, userID, noteID string) error {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, note_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, noteID)
	return errors.Wrap(err, "inserting bookmark")
}

func (repo noteRepository) DeleteBookmark(ctx context.Context, userID, noteID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = $1 AND note_id = $2`, userID, noteID)
	return errors.Wrap(err, "deleting bookmark")
}

func (repo noteRepository) QueryBookmarkedNotes(ctx context.Context, userID string) ([]note.Note, error) {
	var rows []noteRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT n.id, n.title, n.subject, n.filename, n.user_id, n.is_public, n.downloads, n.rating,
			n.total_ratings, n.tags, n.summary, n.created_at, n.updated_at
		 FROM notes n
		 JOIN bookmarks b ON b.note_id = n.id
		 WHERE b.user_id = $1
		 ORDER BY n.created_at DESC, n.id DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying bookmarked notes")
	}
	notes := make([]note.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes, nil
}

func (repo noteRepository) OwnerAnalytics(ctx context.Context, ownerID string) (note.Analytics, error) {
	var a note.Analytics

	err := repo.db.GetContext(ctx, &a.TotalNotes,
		`SELECT COUNT(*) FROM notes WHERE user_id = $1`, ownerID)
	if err != nil {
		return note.Analytics{}, errors.Wrap(err, "counting notes")
	}

	err = repo.db.GetContext(ctx, &a.TotalDownloads,
		`SELECT COALESCE(SUM(downloads), 0) FROM notes WHERE user_id = $1`, ownerID)
	if err != nil {
		return note.Analytics{}, errors.Wrap(err, "summing downloads")
	}

	var counts []note.SubjectCount
	err = repo.db.SelectContext(ctx, &counts,
		`SELECT subject, COUNT(*) AS count FROM notes WHERE user_id = $1
		 GROUP BY subject ORDER BY count DESC, subject ASC`, ownerID)
	if err != nil {
		return note.Analytics{}, errors.Wrap(err, "counting notes per subject")
	}
	a.Subjects = counts
	return a, nil
}

func (repo noteRepository) CountNotes(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM notes`); err != nil {
		return 0, errors.Wrap(err, "counting notes")
	}
	return cnt, nil
}
