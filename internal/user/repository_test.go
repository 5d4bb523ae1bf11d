package user

import (
	"context"
	"testing"
	"time"

	"blog_backend/internal/common"
	"blog_backend/internal/platform/database/dbtest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(name string) *User {
	return &User{Username: name, PasswordHash: "x", Protect: "q", AnswerHash: "a", RegisteredTime: time.Now()}
}

func TestGormRepository_CreateAndFind(t *testing.T) {
	repo := NewGORMRepository(dbtest.New(t, &User{}))
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	byName, err := repo.FindByUsername(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGormRepository_DuplicateUsername(t *testing.T) {
	repo := NewGORMRepository(dbtest.New(t, &User{}))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("bob")))
	err := repo.Create(ctx, newUser("bob"))
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestGormRepository_ListCountAndLookup(t *testing.T) {
	repo := NewGORMRepository(dbtest.New(t, &User{}))
	ctx := context.Background()

	old := newUser("carol")
	old.RegisteredTime = time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, newUser("caroline")))
	require.NoError(t, repo.Create(ctx, newUser("dave")))

	users, total, err := repo.List(ctx, "carol", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, users, 2)
	assert.Equal(t, "caroline", users[0].Username)

	since := time.Now().Add(-time.Hour)
	recent, err := repo.Count(ctx, &since, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, recent)

	names, err := repo.UsernamesByIDs(ctx, []uuid.UUID{old.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{old.ID: "carol"}, names)

	require.NoError(t, repo.Delete(ctx, old.ID))
	assert.ErrorIs(t, repo.Delete(ctx, old.ID), common.ErrNotFound)
}
