package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mika/mahjong-copilot-server/internal/domain"
	"github.com/mika/mahjong-copilot-server/internal/repository/postgres"
	"github.com/mika/mahjong-copilot-server/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	tests := []struct {
		name    string
		user    *domain.User
		wantErr bool
	}{
		{
			name: "successful creation",
			user: &domain.User{
				ID:           uuid.New(),
				DisplayName:  "testuser",
				PasswordHash: "hashedpassword",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantErr: false,
		},
		{
			name: "duplicate display name",
			user: &domain.User{
				ID:           uuid.New(),
				DisplayName:  "testuser", // Same as above
				PasswordHash: "hashedpassword2",
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, tt.user)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUserRepository_GetByDisplayName(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithDisplayName("lookup_user").
		Build(t, testDB.DB)

	t.Run("existing user", func(t *testing.T) {
		got, err := repo.GetByDisplayName(ctx, "lookup_user")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("non-existent user", func(t *testing.T) {
		_, err := repo.GetByDisplayName(ctx, "no_such_user")
		assert.Error(t, err)
	})
}

func TestUserRepository_Update(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewUserRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().
		WithDisplayName("before_update").
		Build(t, testDB.DB)

	user.DisplayName = "after_update"
	require.NoError(t, repo.Update(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "after_update", got.DisplayName)
}
