package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-booking/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	_, err = bunDB.NewCreateTable().Model((*models.User)(nil)).Exec(context.Background())
	require.NoError(t, err)

	return &DB{Bun: bunDB}
}

func sampleUser(id, email string) models.User {
	return models.User{
		ID:           id,
		Email:        email,
		FullName:     "John Doe",
		Role:         models.RoleUser,
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
}

func TestCreateAndGetUser(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.CreateUser(sampleUser("u1", "john@example.com")))

	byID, err := db.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", byID.Email)

	byEmail, err := db.GetUserByEmail("john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
}

func TestGetUser_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetUserByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetUserByEmail("nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.CreateUser(sampleUser("u1", "john@example.com")))
	require.NoError(t, db.DeleteUser("u1"))

	_, err := db.GetUserByID("u1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, db.DeleteUser("u1"), ErrNotFound)
}

func TestSetFullName(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.CreateUser(sampleUser("u1", "john@example.com")))
	require.NoError(t, db.SetFullName("u1", "Johnny Doe"))

	got, err := db.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", got.FullName)

	assert.ErrorIs(t, db.SetFullName("missing", "Nobody"), ErrNotFound)
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)

	u1 := sampleUser("u1", "a@example.com")
	u1.CreatedAt = time.Now().Add(-time.Hour)
	u2 := sampleUser("u2", "b@example.com")
	require.NoError(t, db.CreateUser(u1))
	require.NoError(t, db.CreateUser(u2))

	users, err := db.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID, "newest first")
}
