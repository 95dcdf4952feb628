package application

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vidora/vidora-api/internal/apperrors"
	"github.com/vidora/vidora-api/internal/domain/entity"
	"github.com/vidora/vidora-api/pkg/helpers"
)

type repoStub struct {
	users  map[string]*entity.User
	nextID int
}

func newRepoStub() *repoStub {
	return &repoStub{users: make(map[string]*entity.User)}
}

func (r *repoStub) Create(ctx context.Context, u *entity.User) error {
	for _, e := range r.users {
		if e.Username == u.Username || e.Email == u.Email {
			return apperrors.NewAlreadyExists("user with the same username or email already exists")
		}
	}
	r.nextID++
	u.ID = fmt.Sprintf("u-%d", r.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *repoStub) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *repoStub) GetByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFound("user not found")
}

func (r *repoStub) SetRefreshToken(ctx context.Context, id, token string) error {
	u, ok := r.users[id]
	if !ok {
		return apperrors.NewNotFound("user not found")
	}
	u.RefreshToken = token
	return nil
}

func (r *repoStub) ClearRefreshToken(ctx context.Context, id string) error {
	if u, ok := r.users[id]; ok {
		u.RefreshToken = ""
	}
	return nil
}

type mediaStub struct {
	failFolders map[string]bool
	uploads     []string
}

func (m *mediaStub) Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error) {
	if m.failFolders[folder] {
		return "", fmt.Errorf("upload %s/%s failed", folder, filename)
	}
	m.uploads = append(m.uploads, folder+"/"+filename)
	return "https://cdn.test/" + folder + "/" + filename, nil
}

func newSvc() (*Service, *repoStub, *mediaStub) {
	repo := newRepoStub()
	media := &mediaStub{}
	jwt := helpers.NewJWTManager("a-secret", "r-secret", time.Minute, time.Hour)
	return NewService(repo, jwt, media, nil, nil, nil, nil, ""), repo, media
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Username: "JaneD",
		Password: "secret",
		Avatar:   &FileInput{Reader: strings.NewReader("img"), Filename: "a.png", ContentType: "image/png"},
	}
}

func TestRegister_Success(t *testing.T) {
	svc, repo, _ := newSvc()

	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	require.Equal(t, "janed", profile.Username)
	require.Equal(t, "Jane Doe", profile.FullName)
	require.NotEmpty(t, profile.AvatarURL)
	require.Empty(t, profile.CoverImageURL)

	stored := repo.users[profile.ID]
	require.NotNil(t, stored)
	require.NotEqual(t, "secret", stored.Password)
	require.True(t, helpers.CompareHashAndPassword(stored.Password, "secret"))
	require.Empty(t, stored.RefreshToken)
}

func TestRegister_WithCoverImage(t *testing.T) {
	svc, _, _ := newSvc()

	in := validRegisterInput()
	in.CoverImage = &FileInput{Reader: strings.NewReader("img"), Filename: "c.jpg", ContentType: "image/jpeg"}
	profile, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	require.NotEmpty(t, profile.CoverImageURL)
}

func TestRegister_CoverUploadFailureDefaultsEmpty(t *testing.T) {
	svc, _, media := newSvc()
	media.failFolders = map[string]bool{"covers": true}

	in := validRegisterInput()
	in.CoverImage = &FileInput{Reader: strings.NewReader("img"), Filename: "c.jpg", ContentType: "image/jpeg"}
	profile, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	require.Empty(t, profile.CoverImageURL)
}

func TestRegister_MissingFields(t *testing.T) {
	svc, repo, _ := newSvc()

	in := validRegisterInput()
	in.Email = "   "
	_, err := svc.Register(context.Background(), in)
	require.True(t, apperrors.IsInvalidArgument(err))
	require.Empty(t, repo.users)
}

func TestRegister_MissingAvatar(t *testing.T) {
	svc, repo, _ := newSvc()

	in := validRegisterInput()
	in.Avatar = nil
	_, err := svc.Register(context.Background(), in)
	require.True(t, apperrors.IsInvalidArgument(err))
	require.Empty(t, repo.users)
}

func TestRegister_AvatarUploadFailureIsValidationError(t *testing.T) {
	svc, repo, media := newSvc()
	media.failFolders = map[string]bool{"avatars": true}

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.True(t, apperrors.IsInvalidArgument(err))
	require.Empty(t, repo.users)
}

func TestRegister_Conflict(t *testing.T) {
	svc, repo, _ := newSvc()

	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	require.Len(t, repo.users, 1)

	in := validRegisterInput()
	in.Email = "other@x.com" // same username, different email
	_, err = svc.Register(context.Background(), in)
	require.True(t, apperrors.IsAlreadyExists(err))
	require.Len(t, repo.users, 1)
}

func TestLogin_Success(t *testing.T) {
	svc, repo, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	got, pair, err := svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, pair.RefreshToken, repo.users[profile.ID].RefreshToken)
}

func TestLogin_ByEmailOnly(t *testing.T) {
	svc, _, _ := newSvc()
	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "", "jane@x.com", "secret")
	require.NoError(t, err)
}

func TestLogin_UsernameMatchIsCaseInsensitive(t *testing.T) {
	svc, _, _ := newSvc()
	_, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "JaneD", "", "secret")
	require.NoError(t, err)
}

func TestLogin_BothIdentifiersMissing(t *testing.T) {
	svc, _, _ := newSvc()

	_, _, err := svc.Login(context.Background(), "", "   ", "secret")
	require.True(t, apperrors.IsInvalidArgument(err))
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _, _ := newSvc()

	_, _, err := svc.Login(context.Background(), "nobody", "", "secret")
	require.True(t, apperrors.IsNotFound(err))
}

func TestLogin_WrongPasswordLeavesStoredTokenUnchanged(t *testing.T) {
	svc, repo, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "janed", "", "wrong")
	require.True(t, apperrors.IsInvalidCredentials(err))
	require.Equal(t, pair.RefreshToken, repo.users[profile.ID].RefreshToken)
}

func TestLogin_OverwritesPreviousRefreshToken(t *testing.T) {
	svc, repo, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, first, err := svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)
	_, second, err := svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)

	// overwrite, not append: only the latest refresh token is stored
	require.Equal(t, second.RefreshToken, repo.users[profile.ID].RefreshToken)
	require.NotEmpty(t, first.AccessToken)
}

func TestLogout_ClearsTokenAndIsIdempotent(t *testing.T) {
	svc, repo, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, repo.users[profile.ID].RefreshToken)

	require.NoError(t, svc.Logout(context.Background(), profile.ID))
	require.Empty(t, repo.users[profile.ID].RefreshToken)

	// second logout is not an error
	require.NoError(t, svc.Logout(context.Background(), profile.ID))
}

func TestRefresh_RotatesStoredToken(t *testing.T) {
	svc, repo, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)

	got, rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, profile.ID, got.ID)
	require.Equal(t, rotated.RefreshToken, repo.users[profile.ID].RefreshToken)
}

func TestRefresh_RejectsTokenAfterLogout(t *testing.T) {
	svc, _, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, pair, err := svc.Login(context.Background(), "janed", "", "secret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), profile.ID))

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.True(t, apperrors.IsInvalidCredentials(err))
}

func TestRefresh_RejectsGarbageToken(t *testing.T) {
	svc, _, _ := newSvc()

	_, _, err := svc.Refresh(context.Background(), "not-a-jwt")
	require.True(t, apperrors.IsInvalidCredentials(err))
}

func TestGetProfile(t *testing.T) {
	svc, _, _ := newSvc()
	profile, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	got, err := svc.GetProfile(context.Background(), profile.ID)
	require.NoError(t, err)
	require.Equal(t, profile.Username, got.Username)

	_, err = svc.GetProfile(context.Background(), "missing")
	require.True(t, apperrors.IsNotFound(err))
}
