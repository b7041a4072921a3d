package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound          = core.NewNotFoundError("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrUsernameExists    = errors.New("a user with this username already exists")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrAccountDisabled   = errors.New("account deactivated")
)

type (
	// GetFilter selects a single user. Only the first set field is used.
	GetFilter struct {
		ID              string
		UsernameOrEmail string
	}

	Repository interface {
		// CheckUniqueness returns ErrUsernameExists | ErrEmailExists if another user (not excluded) owns them.
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckUniqueness(ctx, uname, email, excludedIDs...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Register creates a new active User. nu must have been validated.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	now := nowFunc().UTC()
	usr := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

// Authenticate checks the credentials of the user identified by `login` (username or email) and stamps their last login.
func (svc *Service) Authenticate(ctx context.Context, login, pwd string) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(login, true /* lower */)})
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrInvalidCredential
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredential
	}
	if !usr.IsActive {
		return User{}, ErrAccountDisabled
	}

	usr.LastLogin = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, login string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(login, true /* lower */)})
}

// SetPassword replaces the password of the user identified by `login` (username or email).
func (svc *Service) SetPassword(ctx context.Context, login, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, login)
	if err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

// Save creates the user or, when a user with the same username or email exists, updates them.
func (svc *Service) Save(ctx context.Context, usr User) (User, error) {
	now := nowFunc().UTC()
	orig, err := svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: usr.Username})
	if err == ErrNotFound && usr.Email != "" {
		orig, err = svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: usr.Email})
	}
	switch {
	case err == ErrNotFound:
		usr.ID = uuid.NewString()
		usr.CreatedAt = now
		usr.UpdatedAt = now
		usr, err = svc.repo.CreateUser(ctx, usr)
		return usr, errors.Wrap(err, "creating user")
	case err != nil:
		return User{}, errors.Wrap(err, "finding user")
	}

	usr.ID = orig.ID
	usr.CreatedAt = orig.CreatedAt
	usr.LastLogin = orig.LastLogin
	usr.UpdatedAt = now
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}
