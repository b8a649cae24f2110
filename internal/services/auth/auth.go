// Package auth implements registration by confirmation code and bearer token
// authentication.
package auth

import (
	"context"
	"errors"
	"log/slog"

	"yamdb/proj/internal/domain/errs"
	"yamdb/proj/internal/domain/models"
	"yamdb/proj/internal/metrics"
	"yamdb/proj/internal/services/users"
	"yamdb/proj/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const confirmationTmpl = "confirmation_code.html"

type MailProvider interface {
	Send(recipient string, tmplName string, tmplData any) error
}

type TaskExecutor interface {
	Add(task func()) bool
}

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
	Parse(token string) (int64, error)
}

type UsersStorage interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

type AuthService struct {
	log          *slog.Logger
	users        UsersStorage
	Mailer       MailProvider
	tokens       TokenIssuer
	taskExecutor TaskExecutor
	// HashCost is the bcrypt cost used for confirmation codes.
	HashCost int
	// TokenURL is mentioned in the confirmation mail.
	TokenURL string
}

func New(
	log *slog.Logger,
	users UsersStorage,
	mailer MailProvider,
	tokens TokenIssuer,
	taskExecutor TaskExecutor,
) *AuthService {
	return &AuthService{
		log:          log,
		users:        users,
		Mailer:       mailer,
		tokens:       tokens,
		taskExecutor: taskExecutor,
		HashCost:     bcrypt.DefaultCost,
		TokenURL:     "/api/v1/auth/token",
	}
}

type SignupData struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (a *AuthService) newCode() (code, hash string, err error) {
	code = uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), a.HashCost)
	if err != nil {
		return "", "", err
	}
	return code, string(hashed), nil
}

// sendConfirmationCode hands delivery to the background tasks. Failures are
// logged and never undo the registration since the code can be resent.
func (a *AuthService) sendConfirmationCode(user *models.User, code string) {
	log := a.log.With("username", user.Username)
	email := user.Email
	data := map[string]any{
		"username": user.Username,
		"code":     code,
		"tokenURL": a.TokenURL,
	}
	queued := a.taskExecutor.Add(func() {
		log.Info("sending confirmation code")
		if err := a.Mailer.Send(email, confirmationTmpl, data); err != nil {
			metrics.RecordMailFailure()
			log.Error("Error sending confirmation code", "errMsg", err.Error())
		}
	})
	if !queued {
		metrics.RecordMailFailure()
		log.Warn("confirmation code was not queued for delivery")
	}
}

// Signup registers a username/email pair or, when exactly this pair is
// already registered, issues a fresh confirmation code for it.
func (a *AuthService) Signup(ctx context.Context, username, email string) (*SignupData, error) {
	const op = "auth.AuthService.Signup"
	log := a.log.With("op", op, "username", username, "email", email)
	if verr := users.ValidateIdentity(username, email); verr != nil {
		log.Info("invalid signup data", "err", verr)
		return nil, verr
	}

	byName, err := a.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error(err.Error())
		return nil, err
	}
	byEmail, err := a.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		log.Error(err.Error())
		return nil, err
	}
	switch {
	case byName != nil && byName.Email == email:
		return a.resend(ctx, log, byName)
	case byName != nil:
		log.Info("username taken by another email")
		metrics.RecordConflict("user")
		return nil, errs.Conflict("user with this username already exists")
	case byEmail != nil:
		log.Info("email taken by another username")
		metrics.RecordConflict("user")
		return nil, errs.Conflict("user with this email already exists")
	}

	code, hash, err := a.newCode()
	if err != nil {
		log.Error("failed to hash confirmation code", "errMsg", err.Error())
		return nil, err
	}
	user, err := a.users.Insert(ctx, &models.User{
		Username:         username,
		Email:            email,
		Role:             models.RoleUser,
		ConfirmationCode: &hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			log.Info("identity registered concurrently", "err", err)
			return nil, users.ConflictFor(err)
		}
		log.Error(err.Error())
		return nil, err
	}
	metrics.RecordSignup(false)
	a.sendConfirmationCode(user, code)
	return &SignupData{Username: user.Username, Email: user.Email}, nil
}

func (a *AuthService) resend(ctx context.Context, log *slog.Logger, user *models.User) (*SignupData, error) {
	code, hash, err := a.newCode()
	if err != nil {
		log.Error("failed to hash confirmation code", "errMsg", err.Error())
		return nil, err
	}
	user.ConfirmationCode = &hash
	updated, err := a.users.Update(ctx, user)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}
	log.Info("confirmation code regenerated")
	metrics.RecordSignup(true)
	a.sendConfirmationCode(updated, code)
	return &SignupData{Username: updated.Username, Email: updated.Email}, nil
}

// IssueToken exchanges a confirmation code for an access token. The code stays
// valid afterwards; the user is marked active on first success.
func (a *AuthService) IssueToken(ctx context.Context, username, code string) (string, error) {
	const op = "auth.AuthService.IssueToken"
	log := a.log.With("op", op, "username", username)
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("user not found")
			return "", errs.NotFound("user %q not found", username)
		}
		log.Error(err.Error())
		return "", err
	}
	if user.ConfirmationCode == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.ConfirmationCode), []byte(code)) != nil {
		log.Info("confirmation code mismatch")
		return "", errs.ErrInvalidCode
	}
	if !user.IsActive {
		user.IsActive = true
		if user, err = a.users.Update(ctx, user); err != nil {
			log.Error(err.Error())
			return "", err
		}
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		log.Error("failed to issue token", "errMsg", err.Error())
		return "", err
	}
	return token, nil
}

// Authenticate resolves a bearer token to its user.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.AuthService.Authenticate"
	log := a.log.With("op", op)
	uid, err := a.tokens.Parse(token)
	if err != nil {
		log.Info("invalid token", "err", err)
		return nil, errs.ErrUnauthenticated
	}
	user, err := a.users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("token owner not found", "user_id", uid)
			return nil, errs.ErrUnauthenticated
		}
		log.Error(err.Error())
		return nil, err
	}
	return user, nil
}
