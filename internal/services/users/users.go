package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/filters"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/domain/rules"
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/permissions"
	"yamdb/proj/internal/storage"
)

type UsersStorage interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, search string, f filters.Filters) ([]models.User, int, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type Authorizer interface {
	Check(actor *models.User, action permissions.Action, resource permissions.Resource) error
}

type UserService struct {
	log     *slog.Logger
	storage UsersStorage
	perms   Authorizer
}

func New(log *slog.Logger, storage UsersStorage, perms Authorizer) *UserService {
	return &UserService{
		log:     log,
		storage: storage,
		perms:   perms,
	}
}

// Params is the writable part of a profile. On update nil fields keep their
// stored value.
type Params struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Role      *models.Role
}

func (p Params) apply(user *models.User) {
	if p.Username != nil {
		user.Username = *p.Username
	}
	if p.Email != nil {
		user.Email = *p.Email
	}
	if p.FirstName != nil {
		user.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		user.LastName = *p.LastName
	}
	if p.Bio != nil {
		user.Bio = p.Bio
	}
	if p.Role != nil {
		user.Role = *p.Role
	}
}

// ValidateIdentity checks a username/email pair against the registration rules.
func ValidateIdentity(username, email string) *errs.ValidationError {
	verr := &errs.ValidationError{Fields: map[string]string{}}
	switch {
	case username == "":
		verr.Fields["username"] = "this field may not be blank"
	case utf8.RuneCountInString(username) > rules.UsernameMaxLength:
		verr.Fields["username"] = fmt.Sprintf("ensure this field has no more than %d characters", rules.UsernameMaxLength)
	default:
		if _, err := rules.ValidateUsername(username); err != nil {
			verr.Fields["username"] = err.Error()
		}
	}
	switch {
	case email == "":
		verr.Fields["email"] = "this field may not be blank"
	case utf8.RuneCountInString(email) > rules.EmailMaxLength:
		verr.Fields["email"] = fmt.Sprintf("ensure this field has no more than %d characters", rules.EmailMaxLength)
	case !strings.Contains(email, "@"):
		verr.Fields["email"] = "enter a valid email address"
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func validate(user *models.User) error {
	verr := ValidateIdentity(user.Username, user.Email)
	if verr == nil {
		verr = &errs.ValidationError{Fields: map[string]string{}}
	}
	if utf8.RuneCountInString(user.FirstName) > rules.UsernameMaxLength {
		verr.Fields["first_name"] = fmt.Sprintf("ensure this field has no more than %d characters", rules.UsernameMaxLength)
	}
	if utf8.RuneCountInString(user.LastName) > rules.UsernameMaxLength {
		verr.Fields["last_name"] = fmt.Sprintf("ensure this field has no more than %d characters", rules.UsernameMaxLength)
	}
	if !user.Role.Valid() {
		verr.Fields["role"] = fmt.Sprintf("%q is not a valid choice", user.Role)
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ConflictFor maps a storage uniqueness violation onto the field it concerns.
func ConflictFor(err error) error {
	metrics.RecordConflict("user")
	if strings.Contains(err.Error(), "email") {
		return errs.Conflict("user with this email already exists")
	}
	return errs.Conflict("user with this username already exists")
}

func (s *UserService) checkTaken(ctx context.Context, user *models.User) error {
	if other, err := s.storage.GetByUsername(ctx, user.Username); err == nil && other.ID != user.ID {
		metrics.RecordConflict("user")
		return errs.Conflict("user with this username already exists")
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if other, err := s.storage.GetByEmail(ctx, user.Email); err == nil && other.ID != user.ID {
		metrics.RecordConflict("user")
		return errs.Conflict("user with this email already exists")
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

func (s *UserService) List(ctx context.Context, actor *models.User, search string, f filters.Filters) ([]models.User, int, error) {
	const op = "users.UserService.List"
	log := s.log.With("op", op, "search", search)
	if err := s.perms.Check(actor, permissions.ActionRead, permissions.Resource{Kind: permissions.KindUsers}); err != nil {
		log.Info("permission denied")
		return nil, 0, err
	}
	users, total, err := s.storage.List(ctx, search, f)
	if err != nil {
		log.Error(err.Error())
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) Create(ctx context.Context, actor *models.User, p Params) (*models.User, error) {
	const op = "users.UserService.Create"
	log := s.log.With("op", op)
	if err := s.perms.Check(actor, permissions.ActionCreate, permissions.Resource{Kind: permissions.KindUsers}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	user := &models.User{Role: models.RoleUser}
	p.apply(user)
	if err := validate(user); err != nil {
		return nil, err
	}
	if err := s.checkTaken(ctx, user); err != nil {
		log.Info("identity taken", "err", err)
		return nil, err
	}
	created, err := s.storage.Insert(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("identity taken", "err", err)
			return nil, ConflictFor(err)
		}
		log.Error(err.Error())
		return nil, err
	}
	return created, nil
}

func (s *UserService) get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.storage.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("user %q not found", username)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, actor *models.User, username string) (*models.User, error) {
	const op = "users.UserService.Get"
	log := s.log.With("op", op, "username", username)
	if err := s.perms.Check(actor, permissions.ActionRead, permissions.Resource{Kind: permissions.KindUsers}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	user, err := s.get(ctx, username)
	if err != nil {
		log.Info("lookup failed", "err", err)
		return nil, err
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, log *slog.Logger, user *models.User) (*models.User, error) {
	if err := validate(user); err != nil {
		return nil, err
	}
	if err := s.checkTaken(ctx, user); err != nil {
		log.Info("identity taken", "err", err)
		return nil, err
	}
	updated, err := s.storage.Update(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			log.Info("identity taken", "err", err)
			return nil, ConflictFor(err)
		case errors.Is(err, storage.ErrNotFound):
			return nil, errs.NotFound("user not found")
		}
		log.Error(err.Error())
		return nil, err
	}
	return updated, nil
}

// Update is the admin write path and the only one allowed to change roles.
func (s *UserService) Update(ctx context.Context, actor *models.User, username string, p Params) (*models.User, error) {
	const op = "users.UserService.Update"
	log := s.log.With("op", op, "username", username)
	if err := s.perms.Check(actor, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindUsers}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	user, err := s.get(ctx, username)
	if err != nil {
		return nil, err
	}
	p.apply(user)
	return s.save(ctx, log, user)
}

// Delete removes the user; their reviews and comments go with them.
func (s *UserService) Delete(ctx context.Context, actor *models.User, username string) error {
	const op = "users.UserService.Delete"
	log := s.log.With("op", op, "username", username)
	if err := s.perms.Check(actor, permissions.ActionDelete, permissions.Resource{Kind: permissions.KindUsers}); err != nil {
		log.Info("permission denied")
		return err
	}
	if err := s.storage.Delete(ctx, username); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("user %q not found", username)
		}
		log.Error(err.Error())
		return err
	}
	return nil
}

// Me returns the fresh profile of the actor.
func (s *UserService) Me(ctx context.Context, actor *models.User) (*models.User, error) {
	const op = "users.UserService.Me"
	log := s.log.With("op", op)
	if err := s.perms.Check(actor, permissions.ActionRead, permissions.Resource{Kind: permissions.KindMe}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	user, err := s.storage.Get(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, errs.NotFound("user not found")
		}
		log.Error(err.Error())
		return nil, err
	}
	return user, nil
}

// UpdateMe updates the actor's own profile. A supplied role is overwritten
// with the stored one.
func (s *UserService) UpdateMe(ctx context.Context, actor *models.User, p Params) (*models.User, error) {
	const op = "users.UserService.UpdateMe"
	log := s.log.With("op", op)
	if err := s.perms.Check(actor, permissions.ActionUpdate, permissions.Resource{Kind: permissions.KindMe}); err != nil {
		log.Info("permission denied")
		return nil, err
	}
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	if p.Role != nil && *p.Role != user.Role {
		log.Info("ignoring self-service role change", "requested", *p.Role)
	}
	p.Role = &user.Role
	p.apply(user)
	return s.save(ctx, log, user)
}
