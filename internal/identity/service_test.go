package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bissquit/worknotes/internal/authz"
	"github.com/bissquit/worknotes/internal/domain"
	"github.com/bissquit/worknotes/internal/identity/jwt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users         map[string]*domain.User
	createUserErr error
	deleted       []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users: make(map[string]*domain.User),
	}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	if m.createUserErr != nil {
		return m.createUserErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return ErrUsernameExists
		}
	}
	user.ID = uuid.NewString()
	user.NoteIDs = []string{}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockRepository) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *mockRepository) UpdateUser(_ context.Context, user *domain.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, u := range m.users {
		if u.ID != user.ID && u.Username == user.Username {
			return ErrUsernameExists
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockRepository) DeleteUser(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// add stores a user directly and returns the identity its token would carry.
func (m *mockRepository) add(t *testing.T, username string, role domain.Role) (*domain.User, authz.Identity) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Hours:        8,
		NoteIDs:      []string{},
	}
	m.users[u.ID] = u
	return u, authz.Identity{UserID: u.ID, Username: u.Username}
}

func newTestService(t *testing.T) (*Service, *mockRepository, *jwt.Authenticator) {
	t.Helper()
	repo := newMockRepository()
	tokens, err := jwt.NewAuthenticator(jwt.Config{SecretKey: "test-secret"})
	require.NoError(t, err)
	return NewService(repo, tokens, authz.NewResolver(repo), bcrypt.MinCost), repo, tokens
}

func rolePtr(r domain.Role) *domain.Role { return &r }

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func TestRegister_ForcesUserRole(t *testing.T) {
	service, repo, _ := newTestService(t)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "ann",
		Password: "secret1",
		Hours:    8,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, []string{}, user.NoteIDs)

	stored := repo.users[user.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input RegisterInput
		field string
	}{
		{"missing hours", RegisterInput{Username: "ann", Password: "secret1"}, "hours"},
		{"short username", RegisterInput{Username: "an", Password: "secret1", Hours: 8}, "username"},
		{"short password", RegisterInput{Username: "ann", Password: "pw", Hours: 8}, "password"},
		{"too many hours", RegisterInput{Username: "ann", Password: "secret1", Hours: 25}, "hours"},
		{"username too long", RegisterInput{Username: strings.Repeat("u", 300), Password: "secret1", Hours: 8}, "username"},
		{"name too long", RegisterInput{Username: "ann", Password: "secret1", Name: strings.Repeat("n", 256), Hours: 8}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newTestService(t)

			_, err := service.Register(context.Background(), tt.input)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, repo.users)
		})
	}
}

func TestRegister_UsernameExists(t *testing.T) {
	service, repo, _ := newTestService(t)
	repo.add(t, "ann", domain.RoleUser)

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "ann",
		Password: "secret1",
		Hours:    8,
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegister_NormalizesUsername(t *testing.T) {
	service, repo, _ := newTestService(t)
	repo.add(t, "jos\u00e9", domain.RoleUser)

	_, err := service.Register(context.Background(), RegisterInput{
		Username: "jose\u0301",
		Password: "secret1",
		Hours:    8,
	})

	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegister_CreateUserFails(t *testing.T) {
	service, repo, _ := newTestService(t)
	repo.createUserErr = errors.New("database error")

	user, err := service.Register(context.Background(), RegisterInput{
		Username: "ann",
		Password: "secret1",
		Hours:    8,
	})

	assert.Nil(t, user)
	assert.EqualError(t, err, "database error")
}

func TestCreateUser_Roles(t *testing.T) {
	tests := []struct {
		name      string
		actorRole domain.Role
		role      *domain.Role
		wantErr   error
		wantRole  domain.Role
	}{
		{"user cannot create", domain.RoleUser, nil, authz.ErrForbidden, 0},
		{"manager default role", domain.RoleManager, nil, nil, domain.RoleUser},
		{"manager creates manager", domain.RoleManager, rolePtr(domain.RoleManager), nil, domain.RoleManager},
		{"manager cannot create admin", domain.RoleManager, rolePtr(domain.RoleAdmin), authz.ErrForbidden, 0},
		{"admin creates admin", domain.RoleAdmin, rolePtr(domain.RoleAdmin), nil, domain.RoleAdmin},
		{"invalid role", domain.RoleAdmin, rolePtr(domain.Role(7)), domain.ErrValidation, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newTestService(t)
			_, actor := repo.add(t, "boss", tt.actorRole)

			user, err := service.CreateUser(context.Background(), actor, CreateUserInput{
				Username: "newbie",
				Password: "secret1",
				Hours:    6,
				Role:     tt.role,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, user.Role)
		})
	}
}

func TestCreateUser_UnknownActor(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.CreateUser(context.Background(), authz.Identity{UserID: uuid.NewString()}, CreateUserInput{
		Username: "newbie",
		Password: "secret1",
		Hours:    6,
	})

	assert.ErrorIs(t, err, authz.ErrUnknownActor)
}

func TestLogin(t *testing.T) {
	service, repo, tokens := newTestService(t)
	ann, _ := repo.add(t, "ann", domain.RoleManager)

	t.Run("success", func(t *testing.T) {
		user, token, err := service.Login(context.Background(), LoginInput{Username: "ann", Password: "secret"})

		require.NoError(t, err)
		assert.Equal(t, ann.ID, user.ID)

		id, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, ann.ID, id.UserID)
		assert.Equal(t, "ann", id.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), LoginInput{Username: "ann", Password: "nope"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := service.Login(context.Background(), LoginInput{Username: "bob", Password: "secret"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestListUsers(t *testing.T) {
	service, repo, _ := newTestService(t)
	_, user := repo.add(t, "ann", domain.RoleUser)
	_, manager := repo.add(t, "max", domain.RoleManager)

	_, err := service.ListUsers(context.Background(), user)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	users, err := service.ListUsers(context.Background(), manager)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestGetUser(t *testing.T) {
	service, repo, _ := newTestService(t)
	ann, annID := repo.add(t, "ann", domain.RoleUser)
	bob, _ := repo.add(t, "bob", domain.RoleUser)
	_, manager := repo.add(t, "max", domain.RoleManager)

	got, err := service.GetUser(context.Background(), annID, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)

	_, err = service.GetUser(context.Background(), annID, bob.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	got, err = service.GetUser(context.Background(), manager, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = service.GetUser(context.Background(), manager, "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = service.GetUser(context.Background(), manager, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateUser_SelfGetsFreshToken(t *testing.T) {
	service, repo, tokens := newTestService(t)
	ann, annID := repo.add(t, "ann", domain.RoleUser)

	user, token, err := service.UpdateUser(context.Background(), annID, ann.ID, UpdateUserInput{
		Username: strPtr("annie"),
		Hours:    intPtr(4),
	})

	require.NoError(t, err)
	assert.Equal(t, "annie", user.Username)
	assert.Equal(t, 4, user.Hours)
	require.NotEmpty(t, token)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "annie", id.Username)
	assert.Equal(t, ann.ID, id.UserID)
}

func TestUpdateUser_ElevatedGetsNoToken(t *testing.T) {
	service, repo, _ := newTestService(t)
	ann, _ := repo.add(t, "ann", domain.RoleUser)
	_, manager := repo.add(t, "max", domain.RoleManager)

	user, token, err := service.UpdateUser(context.Background(), manager, ann.ID, UpdateUserInput{
		Name: strPtr("Ann"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Empty(t, token)
}

func TestUpdateUser_PasswordIsRehashed(t *testing.T) {
	service, repo, _ := newTestService(t)
	ann, annID := repo.add(t, "ann", domain.RoleUser)

	_, _, err := service.UpdateUser(context.Background(), annID, ann.ID, UpdateUserInput{
		Password: strPtr("changed"),
	})
	require.NoError(t, err)

	_, _, err = service.Login(context.Background(), LoginInput{Username: "ann", Password: "changed"})
	assert.NoError(t, err)
}

func TestUpdateUser_Authorization(t *testing.T) {
	tests := []struct {
		name      string
		actorRole domain.Role
		target    domain.Role
		input     UpdateUserInput
		wantErr   error
	}{
		{"user cannot update other", domain.RoleUser, domain.RoleUser, UpdateUserInput{Hours: intPtr(2)}, authz.ErrForbidden},
		{"manager updates user", domain.RoleManager, domain.RoleUser, UpdateUserInput{Hours: intPtr(2)}, nil},
		{"manager cannot update admin", domain.RoleManager, domain.RoleAdmin, UpdateUserInput{Hours: intPtr(2)}, authz.ErrForbidden},
		{"manager promotes to manager", domain.RoleManager, domain.RoleUser, UpdateUserInput{Role: rolePtr(domain.RoleManager)}, nil},
		{"manager cannot promote to admin", domain.RoleManager, domain.RoleUser, UpdateUserInput{Role: rolePtr(domain.RoleAdmin)}, authz.ErrForbidden},
		{"admin promotes to admin", domain.RoleAdmin, domain.RoleUser, UpdateUserInput{Role: rolePtr(domain.RoleAdmin)}, nil},
		{"invalid hours", domain.RoleAdmin, domain.RoleUser, UpdateUserInput{Hours: intPtr(0)}, domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newTestService(t)
			_, actor := repo.add(t, "actor", tt.actorRole)
			target, _ := repo.add(t, "target", tt.target)

			_, _, err := service.UpdateUser(context.Background(), actor, target.ID, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUpdateUser_SelfPromotionDenied(t *testing.T) {
	service, repo, _ := newTestService(t)
	ann, annID := repo.add(t, "ann", domain.RoleUser)

	_, _, err := service.UpdateUser(context.Background(), annID, ann.ID, UpdateUserInput{
		Role: rolePtr(domain.RoleManager),
	})

	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.Equal(t, domain.RoleUser, repo.users[ann.ID].Role)
}

func TestUpdateUser_UsernameTaken(t *testing.T) {
	service, repo, _ := newTestService(t)
	ann, annID := repo.add(t, "ann", domain.RoleUser)
	repo.add(t, "bob", domain.RoleUser)

	_, _, err := service.UpdateUser(context.Background(), annID, ann.ID, UpdateUserInput{
		Username: strPtr("bob"),
	})

	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestDeleteUser(t *testing.T) {
	service, repo, _ := newTestService(t)
	ann, annID := repo.add(t, "ann", domain.RoleUser)
	admin, _ := repo.add(t, "root", domain.RoleAdmin)
	_, manager := repo.add(t, "max", domain.RoleManager)

	err := service.DeleteUser(context.Background(), annID, ann.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden, "users cannot delete themselves")

	err = service.DeleteUser(context.Background(), manager, admin.ID)
	assert.ErrorIs(t, err, authz.ErrForbidden, "managers cannot delete admins")

	err = service.DeleteUser(context.Background(), manager, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ann.ID}, repo.deleted)

	err = service.DeleteUser(context.Background(), manager, ann.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestEnsureAdmin(t *testing.T) {
	service, repo, _ := newTestService(t)

	require.NoError(t, service.EnsureAdmin(context.Background(), "", ""))
	assert.Empty(t, repo.users)

	require.NoError(t, service.EnsureAdmin(context.Background(), "root", "rootpw"))
	require.Len(t, repo.users, 1)

	admin, err := repo.GetUserByUsername(context.Background(), "root")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	require.NoError(t, service.EnsureAdmin(context.Background(), "root", "other"))
	assert.Len(t, repo.users, 1)
}
