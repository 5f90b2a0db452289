package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kazadi/maktaba/core"
	"github.com/kazadi/maktaba/core/user"
)

const userColumns = `id, name, username, email, password_hash, is_active, roles, dark_mode,
	reset_token_hash, reset_expiry, created_at, updated_at, last_login`

type userRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Username       sql.NullString `db:"username"`
	Email          string         `db:"email"`
	PasswordHash   []byte         `db:"password_hash"`
	IsActive       bool           `db:"is_active"`
	Roles          pq.StringArray `db:"roles"`
	DarkMode       bool           `db:"dark_mode"`
	ResetTokenHash []byte         `db:"reset_token_hash"`
	ResetExpiry    sql.NullTime   `db:"reset_expiry"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
	LastLogin      sql.NullTime   `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:             r.ID,
		Name:           r.Name,
		Username:       r.Username.String,
		Email:          r.Email,
		PasswordHash:   r.PasswordHash,
		IsActive:       r.IsActive,
		Roles:          r.Roles,
		DarkMode:       r.DarkMode,
		ResetTokenHash: r.ResetTokenHash,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if r.ResetExpiry.Valid {
		usr.ResetExpiry = r.ResetExpiry.Time
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func newUserRow(usr user.User) userRow {
	r := userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		Username:       sql.NullString{String: usr.Username, Valid: usr.Username != ""},
		Email:          usr.Email,
		PasswordHash:   usr.PasswordHash,
		IsActive:       usr.IsActive,
		Roles:          usr.Roles,
		DarkMode:       usr.DarkMode,
		ResetTokenHash: usr.ResetTokenHash,
		CreatedAt:      usr.CreatedAt.UTC(),
		UpdatedAt:      usr.UpdatedAt.UTC(),
	}
	if r.Roles == nil {
		r.Roles = pq.StringArray{}
	}
	if !usr.ResetExpiry.IsZero() {
		r.ResetExpiry = sql.NullTime{Time: usr.ResetExpiry.UTC(), Valid: true}
	}
	if !usr.LastLogin.IsZero() {
		r.LastLogin = sql.NullTime{Time: usr.LastLogin.UTC(), Valid: true}
	}
	return r
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := pq.StringArray{}
	for _, u := range excludedUsers {
		exclIDs = append(exclIDs, u.ID)
	}

	if username != "" {
		var exists bool
		err := repo.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND NOT (id = ANY($2)))`, username, exclIDs)
		if err != nil {
			return errors.Wrap(err, "checking username uniqueness")
		}
		if exists {
			return user.ErrUsernameExists
		}
	}

	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND NOT (id = ANY($2)))`, email, exclIDs)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	r := newUserRow(usr)
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO users (id, name, username, email, password_hash, is_active, roles, dark_mode,
			reset_token_hash, reset_expiry, created_at, updated_at, last_login)
		 VALUES (:id, :name, :username, :email, :password_hash, :is_active, :roles, :dark_mode,
			:reset_token_hash, :reset_expiry, :created_at, :updated_at, :last_login)`, r)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return r.toUser(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var where []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + itoa(len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			where = append(where, "(name ILIKE "+p+" OR username ILIKE "+p+" OR email ILIKE "+p+")")
		}
		if len(filter.Roles) > 0 {
			// users with any role that starts with any of the provided roles
			var roleConds []string
			for _, role := range filter.Roles {
				roleConds = append(roleConds,
					"EXISTS (SELECT 1 FROM UNNEST(roles) user_role WHERE user_role ILIKE "+arg(role+"%")+")")
			}
			where = append(where, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.IsActive != nil {
			where = append(where, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY created_at DESC"
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var r userRow
	if err := repo.db.GetContext(ctx, &r, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return r.toUser(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $1`, uname)
}

func (repo userRepository) GetUserByResetTokenHash(ctx context.Context, hash []byte) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE reset_token_hash = $1`, hash)
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	r := newUserRow(usr)
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE users SET name = :name, username = :username, email = :email,
			password_hash = :password_hash, is_active = :is_active, roles = :roles,
			dark_mode = :dark_mode, reset_token_hash = :reset_token_hash, reset_expiry = :reset_expiry,
			updated_at = :updated_at, last_login = :last_login
		 WHERE id = :id`, r)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return user.User{}, user.ErrNotFound
	}
	return r.toUser(), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(cnt), nil
}

func (repo userRepository) CountUsers(ctx context.Context) (int, error) {
	var cnt int
	if err := repo.db.GetContext(ctx, &cnt, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return cnt, nil
}
