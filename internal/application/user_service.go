package application

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vidora/vidora-api/internal/apperrors"
	"github.com/vidora/vidora-api/internal/domain/entity"
	repo "github.com/vidora/vidora-api/internal/domain/repository"
	"github.com/vidora/vidora-api/pkg/helpers"
	"github.com/vidora/vidora-api/pkg/mailer"
)

// Uploader stores a media file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, folder, filename, contentType string, r io.Reader) (string, error)
}

// Publisher enqueues JSON jobs (welcome emails) for the worker.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Service orchestrates registration and the session lifecycle. Redis, ES and
// the publisher are optional collaborators; the core flows work without them.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Media        Uploader
	Redis        *redis.Client
	Logger       *logrus.Logger
	Pub          Publisher
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(repo repo.UserRepository, jwt *helpers.JWTManager, media Uploader, rdb *redis.Client, logger *logrus.Logger, pub Publisher, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{
		Repo:         repo,
		JWT:          jwt,
		Media:        media,
		Redis:        rdb,
		Logger:       logger,
		Pub:          pub,
		ES:           es,
		ESUsersIndex: esUsersIndex,
	}
}

// FileInput is an uploaded file as received from the multipart form.
type FileInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
}

type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *FileInput
	CoverImage *FileInput
}

// TokenPair is the issued credential pair. The refresh token is also the
// single active value persisted on the user record.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// Register validates the input, uploads media, and creates the identity
// record with a lowercased username. The returned profile never carries the
// password hash or refresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (entity.Profile, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return entity.Profile{}, apperrors.NewInvalidArgument("all fields are required")
	}

	if existing, err := s.Repo.GetByUsernameOrEmail(ctx, username, email); err == nil && existing != nil {
		return entity.Profile{}, apperrors.NewAlreadyExists("user with the same username or email already exists")
	} else if err != nil && !apperrors.IsNotFound(err) {
		return entity.Profile{}, err
	}

	if in.Avatar == nil {
		return entity.Profile{}, apperrors.NewInvalidArgument("avatar file is required")
	}
	avatarURL, err := s.Media.Upload(ctx, "avatars", in.Avatar.Filename, in.Avatar.ContentType, in.Avatar.Reader)
	if err != nil || avatarURL == "" {
		// upload failure is treated the same as a missing avatar
		if err != nil && s.Logger != nil {
			s.Logger.WithError(err).Warn("avatar upload failed")
		}
		return entity.Profile{}, apperrors.NewInvalidArgument("avatar file is required")
	}

	coverURL := ""
	if in.CoverImage != nil {
		coverURL, err = s.Media.Upload(ctx, "covers", in.CoverImage.Filename, in.CoverImage.ContentType, in.CoverImage.Reader)
		if err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).Warn("cover image upload failed")
			}
			coverURL = ""
		}
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return entity.Profile{}, apperrors.WrapInternal(err, "hashing password")
	}

	u := &entity.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return entity.Profile{}, err
	}

	created, err := s.Repo.GetByID(ctx, u.ID)
	if err != nil || created == nil {
		return entity.Profile{}, apperrors.WrapInternal(err, "fetching user after registration")
	}

	s.indexUser(ctx, created)
	s.publishWelcomeEmail(ctx, created)

	return created.Sanitized(), nil
}

// Login authenticates by username OR email, issues a token pair, and
// overwrites the stored refresh token (single active session per user).
func (s *Service) Login(ctx context.Context, username, email, password string) (entity.Profile, TokenPair, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.TrimSpace(email)
	if username == "" && email == "" {
		return entity.Profile{}, TokenPair{}, apperrors.NewInvalidArgument("username or email is required")
	}

	u, err := s.Repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return entity.Profile{}, TokenPair{}, apperrors.NewNotFound("user does not exist with this username or email")
		}
		return entity.Profile{}, TokenPair{}, err
	}

	if !helpers.CompareHashAndPassword(u.Password, password) {
		return entity.Profile{}, TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return entity.Profile{}, TokenPair{}, err
	}
	return u.Sanitized(), pair, nil
}

// Logout invalidates the stored refresh token and drops the cached session.
// It is idempotent at this layer.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.Repo.ClearRefreshToken(ctx, userID); err != nil {
		return apperrors.WrapInternal(err, "clearing refresh token")
	}
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
		}
	}
	return nil
}

// Refresh redeems a refresh token for a new pair. The presented token must
// equal the stored single active value; rotation overwrites it.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (entity.Profile, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return entity.Profile{}, TokenPair{}, apperrors.ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return entity.Profile{}, TokenPair{}, apperrors.ErrInvalidCredentials
	}
	if u.RefreshToken == "" || u.RefreshToken != refreshToken {
		return entity.Profile{}, TokenPair{}, apperrors.ErrInvalidCredentials
	}
	pair, err := s.issueTokens(ctx, u)
	if err != nil {
		return entity.Profile{}, TokenPair{}, err
	}
	return u.Sanitized(), pair, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (entity.Profile, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return entity.Profile{}, apperrors.NewNotFound("user not found")
	}
	return u.Sanitized(), nil
}

// issueTokens generates the pair, persists the new refresh token (overwrite,
// not append) and caches the session in redis. Signing failures collapse to
// a generic internal error; the cause stays in the logs only.
func (s *Service) issueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Username, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, apperrors.WrapInternal(err, "generating tokens")
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, apperrors.WrapInternal(err, "generating tokens")
	}

	if err := s.Repo.SetRefreshToken(ctx, u.ID, refresh); err != nil {
		return TokenPair{}, apperrors.WrapInternal(err, "persisting refresh token")
	}
	u.RefreshToken = refresh

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"username":   u.Username,
			"email":      u.Email,
			"full_name":  u.FullName,
			"avatar_url": u.AvatarURL,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *Service) publishWelcomeEmail(ctx context.Context, u *entity.User) {
	if s.Pub == nil {
		return
	}
	job := mailer.EmailJob{
		To:       u.Email,
		Template: "welcome",
		Data:     map[string]any{"FullName": u.FullName, "Username": u.Username},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email publish failed")
	}
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"full_name":  u.FullName,
		"avatar_url": u.AvatarURL,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: u.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

// SearchUsers performs a multi_match search on username and full name.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "full_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
