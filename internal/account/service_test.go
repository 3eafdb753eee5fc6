package account

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"college-budgeting-backend/internal/storage"
)

func createTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	store, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "cbs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Setup(context.Background()))

	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(store, nil)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return now }
	return svc, &now
}

func strPtr(s string) *string { return &s }

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, Registration{Name: " Ana ", Email: "ana@kampus.id", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.NotEqual(t, "rahasia", u.PasswordHash)

	_, err = svc.Register(ctx, Registration{Name: "Ana", Email: "ana@kampus.id", Password: "lain"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	got, err := svc.Login(ctx, "ana@kampus.id", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(ctx, "ana@kampus.id", "salah")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "budi@kampus.id", "rahasia")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegister_RejectsInvalidInput(t *testing.T) {
	svc, _ := createTestService(t)

	tests := []struct {
		name string
		reg  Registration
	}{
		{name: "missing name", reg: Registration{Email: "a@x.id", Password: "p"}},
		{name: "bad email", reg: Registration{Name: "A", Email: "ax.id", Password: "p"}},
		{name: "missing password", reg: Registration{Name: "A", Email: "a@x.id"}},
		{name: "password too long", reg: Registration{Name: "A", Email: "a@x.id", Password: strings.Repeat("p", 73)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.reg)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdateProfile_NameCooldown(t *testing.T) {
	svc, now := createTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Name: "Ana", Email: "ana@kampus.id", Password: "rahasia"})
	require.NoError(t, err)

	// The first rename is always allowed.
	u, err := svc.UpdateProfile(ctx, ProfileUpdate{UserEmail: "ana@kampus.id", Name: strPtr("Ana Putri")})
	require.NoError(t, err)
	assert.Equal(t, "Ana Putri", u.Name)
	require.NotNil(t, u.NameChangedAt)

	*now = now.Add(10 * 24 * time.Hour)
	_, err = svc.UpdateProfile(ctx, ProfileUpdate{UserEmail: "ana@kampus.id", Name: strPtr("Putri")})
	require.ErrorIs(t, err, ErrNameCooldown)
	assert.Contains(t, err.Error(), "wait 20 more days")

	// Other fields still update inside the cooldown, and the same name is not a change.
	u, err = svc.UpdateProfile(ctx, ProfileUpdate{
		UserEmail:  "ana@kampus.id",
		Name:       strPtr("Ana Putri"),
		Occupation: strPtr("Mahasiswa"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Mahasiswa", *u.Occupation)

	*now = now.Add(20 * 24 * time.Hour)
	u, err = svc.UpdateProfile(ctx, ProfileUpdate{UserEmail: "ana@kampus.id", Name: strPtr("Putri")})
	require.NoError(t, err)
	assert.Equal(t, "Putri", u.Name)

	stored, err := svc.Profile(ctx, "ana@kampus.id")
	require.NoError(t, err)
	assert.Equal(t, "Putri", stored.Name)
	assert.Equal(t, "Mahasiswa", *stored.Occupation)
}

func TestUpdateProfile_Errors(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, ProfileUpdate{UserEmail: "nobody@kampus.id"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.Profile(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, Registration{Name: "Ana", Email: "ana@kampus.id", Password: "rahasia"})
	require.NoError(t, err)
	age := -3
	_, err = svc.UpdateProfile(ctx, ProfileUpdate{UserEmail: "ana@kampus.id", Age: &age})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
