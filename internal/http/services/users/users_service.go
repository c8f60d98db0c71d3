// Package users contiene el service del mirror local de usuarios.
//
// El identity provider es la fuente de verdad: toda mutación pasa primero por
// él y después se reconcilia la copia local. Las lecturas son solo del mirror.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/usercopy/internal/audit"
	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/metrics"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
	"github.com/dropDatabas3/usercopy/internal/security/password"
)

// DefaultMaxPageSize tope de FindUsers y tamaño por defecto.
const DefaultMaxPageSize = 20

// Service define las operaciones del mirror.
type Service interface {
	// Reconcile trae el usuario del provider y hace upsert en el mirror.
	Reconcile(ctx context.Context, uid string) (*repository.UserCopy, error)
	CreateUser(ctx context.Context, displayName, email, plain string) (*repository.UserCopy, error)
	UpdateUserInfo(ctx context.Context, uid, displayName string) error
	UpdateUserPassword(ctx context.Context, uid, current, next string) error
	FindUser(ctx context.Context, uid string) (*repository.UserCopy, error)
	// FindUsers: pageSize nil usa el máximo; pageToken es el uid de la última fila vista.
	FindUsers(ctx context.Context, pageSize *int, pageToken *string) ([]repository.UserCopy, error)
	// SyncAll recorre el provider completo y reconcilia cada usuario.
	SyncAll(ctx context.Context, batch int) (int, error)
}

// Identity es el subconjunto del gateway que usa el service.
type Identity interface {
	CreateUser(ctx context.Context, p identity.CreateParams) (*repository.UserCopy, error)
	GetUser(ctx context.Context, uid string) (*repository.UserCopy, error)
	UpdateUser(ctx context.Context, uid string, p identity.UpdateParams) (*repository.UserCopy, error)
	ListUsers(ctx context.Context, pageSize int, pageToken string) ([]repository.UserCopy, string, error)
}

// Deps contiene las dependencias del service.
type Deps struct {
	Identity    Identity
	Users       repository.UserCopyRepository
	Hasher      password.Hasher // nil = password.DefaultHasher
	MaxPageSize int             // <= 0 = DefaultMaxPageSize
}

var (
	ErrInvalidPageSize = errors.New("page size must be at least 1")
	ErrMissingFields   = errors.New("missing required fields")
)

type service struct {
	deps Deps
}

// NewService crea el service de usuarios.
func NewService(deps Deps) Service {
	if deps.Hasher == nil {
		deps.Hasher = password.DefaultHasher
	}
	if deps.MaxPageSize <= 0 {
		deps.MaxPageSize = DefaultMaxPageSize
	}
	return &service{deps: deps}
}

const component = "users"

func (s *service) Reconcile(ctx context.Context, uid string) (*repository.UserCopy, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("Reconcile"),
		logger.UID(uid),
	)

	incoming, err := s.deps.Identity.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			metrics.ReconcileTotal.WithLabelValues("not_found").Inc()
			return nil, err
		}
		metrics.ReconcileTotal.WithLabelValues("error").Inc()
		log.Error("provider lookup failed", logger.Err(err))
		return nil, err
	}
	return s.upsert(ctx, *incoming)
}

// upsert guarda incoming en el mirror y registra si hubo un inicio de sesión nuevo.
func (s *service) upsert(ctx context.Context, incoming repository.UserCopy) (*repository.UserCopy, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("upsert"),
		logger.UID(incoming.UID),
	)

	var before int64 = -1
	if prev, err := s.deps.Users.Get(ctx, incoming.UID); err == nil {
		before = prev.SignInCount
	} else if !repository.IsNotFound(err) {
		log.Warn("mirror read failed", logger.Err(err))
	}

	row, err := s.deps.Users.Reconcile(ctx, incoming)
	if err != nil {
		metrics.ReconcileTotal.WithLabelValues("error").Inc()
		log.Error("mirror reconcile failed", logger.Err(err))
		return nil, fmt.Errorf("reconcile %s: %w", incoming.UID, err)
	}
	metrics.ReconcileTotal.WithLabelValues("ok").Inc()
	if before >= 0 && row.SignInCount > before {
		metrics.SignInEventsTotal.Inc()
		log.Debug("sign-in recorded", logger.Count(row.SignInCount))
	}
	return row, nil
}

func (s *service) CreateUser(ctx context.Context, displayName, email, plain string) (*repository.UserCopy, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("CreateUser"),
	)

	// Política primero: ninguna llamada al provider con una contraseña débil.
	if err := password.Check(plain); err != nil {
		for _, v := range password.ViolationsOf(err) {
			metrics.PasswordPolicyRejectsTotal.WithLabelValues(v.Code).Inc()
		}
		return nil, err
	}
	if err := password.CheckDisplayName(displayName); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingFields
	}
	// La credencial local se calcula antes de crear la cuenta en el provider.
	cred, err := s.hash(plain)
	if err != nil {
		return nil, err
	}

	u, err := s.deps.Identity.CreateUser(ctx, identity.CreateParams{
		Email:       email,
		Password:    plain,
		DisplayName: displayName,
	})
	if err != nil {
		log.Warn("provider create failed", logger.Email(email), logger.Err(err))
		return nil, err
	}
	log = log.With(logger.UID(u.UID))
	attachCredential(u, cred)

	row, err := s.upsert(ctx, *u)
	if err != nil {
		return nil, err
	}
	log.Info("user created")
	audit.Log(ctx, audit.EventUserCreated, u.UID, logger.Email(email))
	return row, nil
}

func (s *service) UpdateUserInfo(ctx context.Context, uid, displayName string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("UpdateUserInfo"),
		logger.UID(uid),
	)

	if err := password.CheckDisplayName(displayName); err != nil {
		return err
	}
	u, err := s.deps.Identity.UpdateUser(ctx, uid, identity.UpdateParams{DisplayName: &displayName})
	if err != nil {
		log.Warn("provider update failed", logger.Err(err))
		return err
	}
	if _, err := s.upsert(ctx, *u); err != nil {
		return err
	}
	log.Info("user info updated")
	audit.Log(ctx, audit.EventUserInfoUpdated, uid)
	return nil
}

func (s *service) UpdateUserPassword(ctx context.Context, uid, current, next string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("UpdateUserPassword"),
		logger.UID(uid),
	)

	row, err := s.deps.Users.Get(ctx, uid)
	if repository.IsNotFound(err) {
		row, err = s.Reconcile(ctx, uid)
	}
	if err != nil {
		return err
	}

	if err := password.ValidatePtr(current, row.PasswordHash, row.PasswordSalt); err != nil {
		log.Debug("current password mismatch")
		return err
	}
	if err := password.Check(next); err != nil {
		for _, v := range password.ViolationsOf(err) {
			metrics.PasswordPolicyRejectsTotal.WithLabelValues(v.Code).Inc()
		}
		return err
	}
	cred, err := s.hash(next)
	if err != nil {
		return err
	}

	u, err := s.deps.Identity.UpdateUser(ctx, uid, identity.UpdateParams{Password: &next})
	if err != nil {
		log.Warn("provider update failed", logger.Err(err))
		return err
	}
	attachCredential(u, cred)
	if _, err := s.upsert(ctx, *u); err != nil {
		return err
	}
	log.Info("password updated")
	audit.Log(ctx, audit.EventPasswordUpdated, uid)
	return nil
}

// hash valida el largo y genera la credencial local.
func (s *service) hash(plain string) (password.Credential, error) {
	if err := password.CheckLength(plain); err != nil {
		return password.Credential{}, err
	}
	cred, err := s.deps.Hasher.Hash(plain)
	if err != nil {
		return password.Credential{}, fmt.Errorf("hash password: %w", err)
	}
	return cred, nil
}

// attachCredential usa cred solo cuando el provider no expone la suya.
func attachCredential(u *repository.UserCopy, cred password.Credential) {
	if u.HasCredential() {
		return
	}
	u.PasswordHash = &cred.Hash
	u.PasswordSalt = &cred.Salt
}

func (s *service) FindUser(ctx context.Context, uid string) (*repository.UserCopy, error) {
	return s.deps.Users.Get(ctx, uid)
}

func (s *service) FindUsers(ctx context.Context, pageSize *int, pageToken *string) ([]repository.UserCopy, error) {
	limit := s.deps.MaxPageSize
	if pageSize != nil {
		if *pageSize < 1 {
			return nil, ErrInvalidPageSize
		}
		if *pageSize < limit {
			limit = *pageSize
		}
	}
	var after *string
	if pageToken != nil && strings.TrimSpace(*pageToken) != "" {
		after = pageToken
	}
	rows, err := s.deps.Users.List(ctx, repository.ListUsersFilter{Limit: limit, After: after})
	if err != nil {
		logger.From(ctx).Error("list users failed",
			logger.Layer("service"), logger.Component(component), logger.Op("FindUsers"),
			logger.PageSize(limit), logger.Err(err))
		return nil, err
	}
	return rows, nil
}

func (s *service) SyncAll(ctx context.Context, batch int) (int, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("SyncAll"),
	)
	if batch <= 0 {
		batch = 1000
	}

	synced := 0
	token := ""
	for {
		page, next, err := s.deps.Identity.ListUsers(ctx, batch, token)
		if err != nil {
			return synced, err
		}
		for _, u := range page {
			if _, err := s.upsert(ctx, u); err != nil {
				return synced, err
			}
			synced++
		}
		log.Debug("page synced", logger.Count(int64(len(page))))
		if next == "" || len(page) == 0 {
			break
		}
		token = next
	}
	log.Info("sync finished", logger.Count(int64(synced)))
	return synced, nil
}
