package postgresql_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/collab-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/collab-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRepository_GetOwnedBySlug(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewProjectRepository(db)

	owner := createTestUser(t, "owner@example.com")
	other := createTestUser(t, "other@example.com")
	created := createTestProject(t, owner.ID, "Acme", "acme")

	got, err := repo.GetOwnedBySlug(ctx, owner.ID, "acme")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Acme", got.Name)

	_, err = repo.GetOwnedBySlug(ctx, other.ID, "acme")
	assert.ErrorIs(t, err, project.ErrProjectNotFound)

	_, err = repo.GetOwnedBySlug(ctx, owner.ID, "missing")
	assert.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestProjectRepository_Membership(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewProjectRepository(db)

	owner := createTestUser(t, "owner@example.com")
	member := createTestUser(t, "member@example.com")
	p := createTestProject(t, owner.ID, "Acme", "acme")

	isMember, err := repo.IsMember(ctx, p.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, isMember, "owner counts as member")

	isMember, err = repo.IsMember(ctx, p.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, isMember)

	require.NoError(t, repo.EnsureMembership(ctx, p.ID, member.ID))
	require.NoError(t, repo.EnsureMembership(ctx, p.ID, member.ID))

	isMember, err = repo.IsMember(ctx, p.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	var count int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM project_members WHERE project_id = $1`, p.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewProjectRepository(db)
	tx := postgresql.NewTransactor(db)

	owner := createTestUser(t, "owner@example.com")
	member := createTestUser(t, "member@example.com")
	p := createTestProject(t, owner.ID, "Acme", "acme")

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.EnsureMembership(ctx, p.ID, member.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	isMember, err := repo.IsMember(ctx, p.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}
