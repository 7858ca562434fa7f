package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/leatherworks-erp/internal/audit"
	"github.com/angelmondragon/leatherworks-erp/pkg/config"
	"github.com/angelmondragon/leatherworks-erp/pkg/db"
	"github.com/angelmondragon/leatherworks-erp/pkg/db/models"
	"github.com/angelmondragon/leatherworks-erp/pkg/enums"
	pkgerrors "github.com/angelmondragon/leatherworks-erp/pkg/errors"
	"github.com/angelmondragon/leatherworks-erp/pkg/logger"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox"
	"github.com/angelmondragon/leatherworks-erp/pkg/outbox/payloads"
	"github.com/angelmondragon/leatherworks-erp/pkg/pagination"
	"github.com/angelmondragon/leatherworks-erp/pkg/security"
)

const tempPasswordLength = 12

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// sessionRevoker ends every login of a user. Access tokens carry the role, so
// a role change or deactivation must not wait for them to expire.
type sessionRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID) error
}

// Service manages ERP accounts on behalf of administrators.
type Service interface {
	List(ctx context.Context, params ListParams) (pagination.Page[UserDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	Create(ctx context.Context, actor audit.Actor, input CreateUserInput) (*UserDTO, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateUserInput) (*UserDTO, error)
	Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) (*UserDTO, error)
}

type ServiceParams struct {
	Repo           *Repository
	TxRunner       txRunner
	Audit          audit.Writer
	Outbox         outbox.Emitter
	PasswordConfig config.PasswordConfig
	Sessions       sessionRevoker
	Logger         *logger.Logger
}

type service struct {
	repo     *Repository
	tx       txRunner
	audit    audit.Writer
	outbox   outbox.Emitter
	passCfg  config.PasswordConfig
	sessions sessionRevoker
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "audit writer required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	return &service{
		repo:     params.Repo,
		tx:       params.TxRunner,
		audit:    params.Audit,
		outbox:   params.Outbox,
		passCfg:  params.PasswordConfig,
		sessions: params.Sessions,
		logg:     params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (pagination.Page[UserDTO], error) {
	rows, limit, err := s.repo.List(ctx, params)
	if err != nil {
		return pagination.Page[UserDTO]{}, pagination.ListError(err, "list users")
	}
	dtos := make([]UserDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return pagination.BuildPage(dtos, limit, func(u UserDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Create(ctx context.Context, actor audit.Actor, input CreateUserInput) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	password := input.Password
	generated := password == ""
	if generated {
		temp, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
		}
		password = temp
	} else if err := security.CheckPasswordPolicy(password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	hash, err := security.HashPassword(password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:              email,
		PasswordHash:       hash,
		FirstName:          strings.TrimSpace(input.FirstName),
		LastName:           strings.TrimSpace(input.LastName),
		Role:               input.Role,
		IsActive:           true,
		MustChangePassword: generated,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
		}
		if err := repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "user.create",
			EntityType: audit.EntityUser,
			EntityID:   user.ID,
			Changes:    map[string]any{"email": user.Email, "role": user.Role},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
		}

		event := payloads.UserInvitedEvent{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.FullName(),
			Role:   user.Role,
		}
		if generated {
			event.TemporaryPassword = password
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUserInvited,
			AggregateType: enums.AggregateUser,
			AggregateID:   user.ID,
			Actor:         actor.Ref(),
			Data:          event,
		})
	})
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateUserInput) (*UserDTO, error) {
	if input.Role != nil && !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if input.IsActive != nil && !*input.IsActive && actor.UserID == id {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot deactivate your own account")
	}

	var (
		updated      *models.User
		revokeLogins bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		user, err := s.load(ctx, repo, id)
		if err != nil {
			return err
		}
		changes := map[string]any{}
		if input.FirstName != nil {
			user.FirstName = strings.TrimSpace(*input.FirstName)
			changes["first_name"] = user.FirstName
		}
		if input.LastName != nil {
			user.LastName = strings.TrimSpace(*input.LastName)
			changes["last_name"] = user.LastName
		}
		if input.Role != nil && *input.Role != user.Role {
			changes["role"] = map[string]any{"from": user.Role, "to": *input.Role}
			user.Role = *input.Role
			revokeLogins = true
		}
		if input.IsActive != nil && *input.IsActive != user.IsActive {
			user.IsActive = *input.IsActive
			changes["is_active"] = user.IsActive
			revokeLogins = revokeLogins || !user.IsActive
		}
		if err := repo.Save(ctx, user); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
		}
		if err := s.audit.Record(ctx, tx, audit.Entry{
			Actor:      actor,
			Action:     "user.update",
			EntityType: audit.EntityUser,
			EntityID:   user.ID,
			Changes:    changes,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record audit")
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	if revokeLogins {
		s.revokeSessions(ctx, updated.ID)
	}
	return FromModel(updated), nil
}

// The account change is already committed, so a failed revoke is logged and
// the stale sessions run out on their own TTL.
func (s *service) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "error": err.Error()})
		s.logg.Warn(logCtx, "users.revoke_sessions_failed")
	}
}

func (s *service) Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) (*UserDTO, error) {
	inactive := false
	return s.Update(ctx, actor, id, UpdateUserInput{IsActive: &inactive})
}

func (s *service) load(ctx context.Context, repo *Repository, id uuid.UUID) (*models.User, error) {
	user, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
