package api

import (
	"github.com/goliatone/go-campus"
)

// Services bundles the domain components the HTTP layer calls.
type Services struct {
	Repo          campus.RepositoryManager
	Hasher        *campus.Hasher
	Tokens        campus.TokenService
	Auth          *campus.Auther
	Guard         *campus.Guard
	Signup        *campus.RegisterUserHandler
	Colleges      *campus.CollegeService
	Events        *campus.EventService
	Registrations *campus.RegistrationManager
	Users         *campus.UserService
}

// NewServices wires the domain components from cfg. The activity sink may
// be nil.
func NewServices(cfg campus.Config, repo campus.RepositoryManager, logger campus.Logger, sink campus.ActivitySink) (*Services, error) {
	tokens, err := campus.NewTokenService(cfg, campus.WithTokenLogger(logger))
	if err != nil {
		return nil, err
	}

	hasher := campus.NewHasher(cfg.GetBcryptCost())
	region := cfg.GetDefaultPhoneRegion()

	provider := campus.NewUserProvider(repo.Users(), hasher).
		WithLockout(cfg.GetMaxLoginAttempts(), cfg.GetLockoutPeriod()).
		WithLogger(logger)

	return &Services{
		Repo:   repo,
		Hasher: hasher,
		Tokens: tokens,
		Auth: campus.NewAuthenticator(provider, tokens, cfg.GetRequireActiveAccount()).
			WithLogger(logger).
			WithActivitySink(sink),
		Guard: campus.NewGuard(tokens, repo.Users(), cfg.GetRequireActiveAccount()).
			WithLogger(logger),
		Signup: campus.NewRegisterUserHandler(repo, hasher, cfg.GetAutoActivateSignups()).
			WithPhoneRegion(region).
			WithActivity(sink, logger),
		Colleges: campus.NewCollegeService(repo, hasher).
			WithPhoneRegion(region).
			WithActivity(sink, logger),
		Events: campus.NewEventService(repo).
			WithActivity(sink, logger),
		Registrations: campus.NewRegistrationManager(repo).
			WithActivity(sink, logger),
		Users: campus.NewUserService(repo, hasher).
			WithPhoneRegion(region).
			WithActivity(sink, logger),
	}, nil
}
