package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"katalog/internal/models"
	"katalog/internal/repositories"
	"katalog/internal/services"
)

// fakeUserRepo is an in-memory Repository[models.User] enforcing the email
// unique index the way the database does.
type fakeUserRepo struct {
	users  []models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1}
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	for i := range r.users {
		if r.users[i].ID == id && !r.users[i].IsDeleted {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		if !u.IsDeleted {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetWhere(ctx context.Context, predicate func(*models.User) bool) ([]models.User, error) {
	all, _ := r.GetAll(ctx)
	out := make([]models.User, 0, len(all))
	for i := range all {
		if predicate(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Add(ctx context.Context, entity *models.User) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == entity.Email {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	entity.ID = r.nextID
	entity.CreatedAt = time.Now().UTC()
	r.nextID++
	r.users = append(r.users, *entity)
	return entity, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, entity *models.User) (*models.User, error) {
	for i := range r.users {
		if r.users[i].ID == entity.ID && !r.users[i].IsDeleted {
			r.users[i] = *entity
			return entity, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uint) (bool, error) {
	for i := range r.users {
		if r.users[i].ID == id && !r.users[i].IsDeleted {
			r.users[i].IsDeleted = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, id uint) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func registerInput() services.RegisterInput {
	return services.RegisterInput{
		Email:     "a@b.com",
		Password:  "secret123",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}
}

func TestAuthService_Register(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo, "test_jwt_secret", testLogger())

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.NotEmpty(t, user.Token)

	// The stored hash must verify against the original password and must not
	// be the password itself.
	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))

	claims, err := svc.ValidateToken(user.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims["email"])
}

func TestAuthService_RegisterConflict(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo, "test_jwt_secret", testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerInput())
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "no duplicate row may be created")
}

func TestAuthService_RegisterConflictFromUniqueIndex(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo, "test_jwt_secret", testLogger())
	ctx := context.Background()

	// Simulate losing the check-then-act race: the row appears between the
	// existence check and the insert, so only the unique index catches it.
	_, err := repo.Add(ctx, &models.User{Email: "late@b.com", PasswordHash: "x", FirstName: "L", LastName: "R"})
	require.NoError(t, err)

	input := registerInput()
	input.Email = "late@b.com"
	_, err = svc.Register(ctx, input)
	assert.ErrorIs(t, err, services.ErrEmailTaken)
}

func TestAuthService_Login(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo, "test_jwt_secret", testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, err := svc.Login(ctx, services.LoginInput{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.Token)

	_, err = svc.ValidateToken(user.Token)
	assert.NoError(t, err)
}

func TestAuthService_LoginFailures(t *testing.T) {
	repo := newFakeUserRepo()
	svc := services.NewAuthService(repo, "test_jwt_secret", testLogger())
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	// Wrong password and unknown email yield the same condition, so callers
	// cannot probe which emails are registered.
	_, err = svc.Login(ctx, services.LoginInput{Email: "a@b.com", Password: "wrong"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Login(ctx, services.LoginInput{Email: "nobody@b.com", Password: "secret123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	svc := services.NewAuthService(newFakeUserRepo(), "test_jwt_secret", testLogger())

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)

	// Token signed with a different secret is rejected.
	other := services.NewAuthService(newFakeUserRepo(), "other_secret", testLogger())
	user, err := other.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = svc.ValidateToken(user.Token)
	assert.Error(t, err)
}
