// Package auth contiene el login por email y password.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/usercopy/internal/audit"
	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
	"github.com/dropDatabas3/usercopy/internal/security/password"
)

// LoginService valida la credencial contra el mirror y emite un token del provider.
type LoginService interface {
	Login(ctx context.Context, email, plain string) (string, error)
}

// Identity es el subconjunto del gateway que usa el login.
type Identity interface {
	GetUserByEmail(ctx context.Context, email string) (*repository.UserCopy, error)
	IssueToken(ctx context.Context, uid string, claims map[string]any) (string, error)
}

// Reconciler sincroniza el mirror después del login (users.Service).
type Reconciler interface {
	Reconcile(ctx context.Context, uid string) (*repository.UserCopy, error)
}

// LoginDeps contiene las dependencias del login.
type LoginDeps struct {
	Identity   Identity
	Users      repository.UserCopyRepository
	Reconciler Reconciler
}

var ErrMissingFields = errors.New("missing required fields")

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea el service de login.
func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

func (s *loginService) Login(ctx context.Context, email, plain string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("Login"),
	)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || plain == "" {
		return "", ErrMissingFields
	}

	// Paso 1: usuario en el provider. Un email desconocido no se distingue de una password incorrecta.
	u, err := s.deps.Identity.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			log.Debug("unknown email", logger.Email(email))
			return "", password.ErrCredentialMismatch
		}
		return "", err
	}
	log = log.With(logger.UID(u.UID))

	// Paso 2: credencial local (fila del mirror o, si no tiene, la del provider)
	row, err := s.deps.Users.Get(ctx, u.UID)
	if repository.IsNotFound(err) {
		row, err = s.deps.Reconciler.Reconcile(ctx, u.UID)
	}
	if err != nil {
		return "", err
	}
	hash, salt := row.PasswordHash, row.PasswordSalt
	if !row.HasCredential() {
		hash, salt = u.PasswordHash, u.PasswordSalt
	}
	if err := password.ValidatePtr(plain, hash, salt); err != nil {
		log.Debug("password check failed")
		audit.Log(ctx, audit.EventLoginFailed, u.UID)
		return "", err
	}

	// Paso 3: token
	claims := map[string]any{"signInProvider": "password"}
	token, err := s.deps.Identity.IssueToken(ctx, u.UID, claims)
	if err != nil {
		log.Error("issue token failed", logger.Err(err))
		return "", err
	}

	// Paso 4: registrar el inicio de sesión en el mirror
	if _, err := s.deps.Reconciler.Reconcile(ctx, u.UID); err != nil {
		log.Error("post-login reconcile failed", logger.Err(err))
		return "", err
	}

	log.Info("login ok")
	audit.Log(ctx, audit.EventLoginSucceeded, u.UID)
	return token, nil
}
