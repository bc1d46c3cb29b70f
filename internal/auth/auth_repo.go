package auth

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/fivestack-gg/fivestack/internal/database"
)

type Repository struct {
	db database.Database
}

func NewRepository(database database.Database) Repository {
	return Repository{db: database}
}

func (r Repository) GetUserByID(ctx context.Context, userID int64) (User, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("user_id", "username", "email", "password_hash", "permission_level", "created_on", "updated_on").
		From("users").
		Where(sq.Eq{"user_id": userID}))
	if errRow != nil {
		return User{}, database.DBErr(errRow)
	}

	var user User
	if errScan := row.Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash,
		&user.PermissionLevel, &user.CreatedOn, &user.UpdatedOn); errScan != nil {
		return User{}, database.DBErr(errScan)
	}

	return user, nil
}

func (r Repository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("user_id", "username", "email", "password_hash", "permission_level", "created_on", "updated_on").
		From("users").
		Where(sq.Eq{"username": username}))
	if errRow != nil {
		return User{}, database.DBErr(errRow)
	}

	var user User
	if errScan := row.Scan(&user.UserID, &user.Username, &user.Email, &user.PasswordHash,
		&user.PermissionLevel, &user.CreatedOn, &user.UpdatedOn); errScan != nil {
		return User{}, database.DBErr(errScan)
	}

	return user, nil
}

func (r Repository) UserCount(ctx context.Context) (int64, error) {
	count, errCount := r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(user_id)").
		From("users"))
	if errCount != nil {
		return 0, database.DBErr(errCount)
	}

	return count, nil
}

func (r Repository) SaveUser(ctx context.Context, user *User) error {
	if errInsert := r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("users").
		Columns("username", "email", "password_hash", "permission_level", "created_on", "updated_on").
		Values(user.Username, user.Email, user.PasswordHash, user.PermissionLevel, user.CreatedOn, user.UpdatedOn).
		Suffix("RETURNING user_id"), &user.UserID); errInsert != nil {
		return database.DBErr(errInsert)
	}

	return nil
}

func (r Repository) SaveUserAuth(ctx context.Context, userAuth *UserAuth) error {
	if errInsert := r.db.ExecInsertBuilderWithReturnValue(ctx, r.db.
		Builder().
		Insert("user_auth").
		Columns("user_id", "access_token", "fingerprint", "created_on").
		Values(userAuth.UserID, userAuth.AccessToken, userAuth.Fingerprint, userAuth.CreatedOn).
		Suffix("RETURNING user_auth_id"), &userAuth.UserAuthID); errInsert != nil {
		return database.DBErr(errInsert)
	}

	return nil
}

func (r Repository) DeleteUserAuthByFingerprint(ctx context.Context, fingerprint string) error {
	return database.DBErr(r.db.ExecDeleteBuilder(ctx, r.db.
		Builder().
		Delete("user_auth").
		Where(sq.Eq{"fingerprint": fingerprint})))
}
