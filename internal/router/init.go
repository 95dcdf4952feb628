package router

import (
	userapp "github.com/vidora/vidora-api/internal/application"
	"github.com/vidora/vidora-api/internal/container"
	pginfra "github.com/vidora/vidora-api/internal/infrastructure/postgres"
	handlers "github.com/vidora/vidora-api/internal/interface/http"
	"github.com/vidora/vidora-api/internal/router/modules"
	"github.com/vidora/vidora-api/pkg/helpers"
)

func buildUserModule() *modules.UserModule {
	cfg := container.GetConfig()

	repo := pginfra.NewUserRepository(container.GetPGPool())
	media := helpers.NewGCSUploader(container.GetGCS(), cfg.GCSBucket)

	// keep the Publisher interface nil when rabbit is not configured
	var pub userapp.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		media,
		container.GetRedis(),
		container.GetLogger(),
		pub,
		container.GetES(),
		cfg.ESUsersIndex,
	)

	handler := handlers.NewUserHandler(
		service,
		container.GetLogger(),
		cfg.CookieDomain,
		cfg.CookieSecure,
	)

	return modules.NewUserModule(handler, container.GetJWT())
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	r.Add(buildUserModule())
}
