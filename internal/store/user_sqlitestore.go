package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/schemawatch/schemawatch/internal/util"

	"github.com/georgysavva/scany/v2/sqlscan"
)

// userColumns is every users column the User struct carries. created_on is
// not surfaced anywhere in the product, so it is never selected.
const userColumns = `user_id, user_role_id, username, password_hash, password_changed_on`

type UserSQLiteStore struct {
	rdb, rwdb *sql.DB
}

func NewUserSQLiteStore(rdb, rwdb *sql.DB) *UserSQLiteStore {
	return &UserSQLiteStore{rdb, rwdb}
}

func (store *UserSQLiteStore) CreateUser(
	ctx context.Context,
	role Role,
	username, passwordHash string,
) (*User, error) {
	u := &User{
		UserRoleID:   role,
		Username:     username,
		PasswordHash: passwordHash,
	}
	query := `insert into users (
		user_role_id,
		username,
		password_hash
	)
	values ($1, $2, $3)
	returning user_id`
	err := sqlscan.Get(ctx, store.rwdb, u, query, u.UserRoleID, u.Username, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateSuperuser stores the bootstrap account. Its password counts as
// already changed so the forced first-login password change does not apply.
func (store *UserSQLiteStore) CreateSuperuser(
	ctx context.Context,
	username, passwordHash string,
) (*User, error) {
	u := &User{
		UserRoleID:        Superuser,
		Username:          username,
		PasswordHash:      passwordHash,
		PasswordChangedOn: util.AsPtr(time.Now().UTC()),
	}
	query := `insert into users (
		user_role_id,
		username,
		password_hash,
		password_changed_on
	)
	values ($1, $2, $3, $4)
	returning user_id`
	err := sqlscan.Get(
		ctx, store.rwdb, u, query,
		u.UserRoleID, u.Username, u.PasswordHash, u.PasswordChangedOn,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ReadUserByID(ctx context.Context, userID int64) (*User, error) {
	u := new(User)
	query := `select ` + userColumns + ` from users where user_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, u, query, userID); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ReadUserByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	u := new(User)
	query := `select ` + userColumns + ` from users where username = $1`
	if err := sqlscan.Get(ctx, store.rdb, u, query, username); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) ReadUserBySessionID(
	ctx context.Context,
	sessionID string,
) (*User, error) {
	u := new(User)
	query := `select
		u.user_id,
		u.user_role_id,
		u.username,
		u.password_hash,
		u.password_changed_on,
		s.expires_on as session_expires
	from auth_sessions s
	join users u on u.user_id = s.auth_session_user_id
	where s.auth_session_id = $1`
	if err := sqlscan.Get(ctx, store.rdb, u, query, sessionID); err != nil {
		return nil, err
	}
	return u, nil
}

func (store *UserSQLiteStore) UpdateUserRole(ctx context.Context, userID int64, role Role) error {
	query := `update users set user_role_id = $1 where user_id = $2`
	_, err := store.rwdb.ExecContext(ctx, query, role, userID)
	return err
}

func (store *UserSQLiteStore) UpdateUserPassword(
	ctx context.Context,
	userID int64,
	passwordHash string,
	changedOn *time.Time,
) error {
	query := `update users
	set password_hash = $1,
		password_changed_on = $2
	where user_id = $3`
	_, err := store.rwdb.ExecContext(ctx, query, passwordHash, changedOn, userID)
	return err
}

func (store *UserSQLiteStore) DeleteUser(ctx context.Context, userID int64) error {
	query := `delete from users where user_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, userID)
	return err
}

func (store *UserSQLiteStore) ListUsers(ctx context.Context) ([]*User, error) {
	users := make([]*User, 0)
	query := `select ` + userColumns + ` from users order by username`
	err := sqlscan.Select(ctx, store.rdb, &users, query)
	return users, err
}

func (store *UserSQLiteStore) ListSuperusers(ctx context.Context) ([]User, error) {
	users := make([]User, 0)
	query := `select ` + userColumns + ` from users where user_role_id = $1`
	err := sqlscan.Select(ctx, store.rdb, &users, query, Superuser)
	return users, err
}

func (store *UserSQLiteStore) CreateAuthSession(
	ctx context.Context,
	authSessionID string,
	userID int64,
	expires time.Time,
) (*AuthSession, error) {
	as := &AuthSession{
		AuthSessionID:      authSessionID,
		AuthSessionUserID:  userID,
		AuthSessionExpires: expires,
	}
	query := `insert into auth_sessions (
		auth_session_id,
		auth_session_user_id,
		expires_on
	)
	values ($1, $2, $3)`
	_, err := store.rwdb.ExecContext(
		ctx, query, as.AuthSessionID, as.AuthSessionUserID, as.AuthSessionExpires,
	)
	if err != nil {
		return nil, err
	}
	return as, nil
}

func (store *UserSQLiteStore) DeleteAuthSessionsByUserID(ctx context.Context, userID int64) error {
	query := `delete from auth_sessions where auth_session_user_id = $1`
	_, err := store.rwdb.ExecContext(ctx, query, userID)
	return err
}
