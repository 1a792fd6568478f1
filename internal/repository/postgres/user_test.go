package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/database"
	apperrors "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/errors"
)

const testUserID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock := newMock(t)
	return NewUserRepository(mock), mock
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	token := "refresh-abc"
	return &domain.User{
		ID:           testUserID,
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "hash-abc",
		RefreshToken: &token,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "refresh_token", "created_at", "updated_at"})
}

func addUser(rows *pgxmock.Rows, u *domain.User) *pgxmock.Rows {
	return rows.AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.RefreshToken, u.CreatedAt, u.UpdatedAt)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: database.UniqueViolation})

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "expected ErrAlreadyExists, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DBError(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert user")
	assert.False(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1").
		WithArgs(u.ID).
		WillReturnRows(addUser(userRows(), u))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id = \\$1").
		WithArgs(testUserID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), testUserID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NonUUIDSkipsQuery(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\$1").
		WithArgs(u.Email).
		WillReturnRows(addUser(userRows(), u))

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash-abc", got.PasswordHash)
}

func TestUserRepository_GetByEmail_DBError(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE email").
		WillReturnError(errors.New("boom"))

	_, err := repo.GetByEmail(context.Background(), "x@y.z")
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUserRepository_GetByRefreshToken(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectQuery("SELECT .+ FROM users WHERE refresh_token = \\$1").
		WithArgs(*u.RefreshToken).
		WillReturnRows(addUser(userRows(), u))

	got, err := repo.GetByRefreshToken(context.Background(), *u.RefreshToken)
	require.NoError(t, err)
	assert.True(t, got.HasSession("refresh-abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByRefreshToken_Empty(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	_, err := repo.GetByRefreshToken(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestUserRepository_List(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	a := sampleUser()
	b := sampleUser()
	b.ID, b.Name, b.Email, b.RefreshToken = "3f2504e0-4f89-11d3-9a0c-0305e82c3301", "Bob", "bob@example.com", nil

	mock.ExpectQuery("SELECT .+ FROM users ORDER BY created_at").
		WillReturnRows(addUser(addUser(userRows(), a), b))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "Bob", users[1].Name)
	assert.Nil(t, users[1].RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_List_Empty(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectQuery("SELECT .+ FROM users").WillReturnRows(userRows())

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

// ---------------------------------------------------------------------------
// Update / SetRefreshToken
// ---------------------------------------------------------------------------

func TestUserRepository_Update_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectExec("UPDATE users SET name = \\$1, email = \\$2").
		WithArgs(u.Name, u.Email, pgxmock.AnyArg(), u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Update(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), u)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepository_Update_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	u := sampleUser()

	mock.ExpectExec("UPDATE users").
		WillReturnError(&pgconn.PgError{Code: database.UniqueViolation})

	err := repo.Update(context.Background(), u)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestUserRepository_SetRefreshToken(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	token := "new-token"

	mock.ExpectExec("UPDATE users SET refresh_token = \\$1").
		WithArgs(&token, pgxmock.AnyArg(), testUserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetRefreshToken(context.Background(), testUserID, &token))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetRefreshToken_Clear(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectExec("UPDATE users SET refresh_token = \\$1").
		WithArgs((*string)(nil), pgxmock.AnyArg(), testUserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetRefreshToken(context.Background(), testUserID, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetRefreshToken_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)

	mock.ExpectExec("UPDATE users SET refresh_token").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetRefreshToken(context.Background(), testUserID, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
