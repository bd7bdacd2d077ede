package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/taskboard-backend/internal/cache"
	dataagg "github.com/yungbote/taskboard-backend/internal/data/aggregates"
	"github.com/yungbote/taskboard-backend/internal/data/repos"
	"github.com/yungbote/taskboard-backend/internal/data/repos/query"
	"github.com/yungbote/taskboard-backend/internal/domain/aggregates"
	"github.com/yungbote/taskboard-backend/internal/domain/analytics"
	"github.com/yungbote/taskboard-backend/internal/domain/task"
	"github.com/yungbote/taskboard-backend/internal/domain/user"
	vo "github.com/yungbote/taskboard-backend/internal/domain/valueobjects"
	"github.com/yungbote/taskboard-backend/internal/events"
	"github.com/yungbote/taskboard-backend/internal/pkg/dbctx"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt input limit
)

type CreateUserInput struct {
	Email     string
	Username  string
	FullName  string
	Password  string
	Bio       *string
	AvatarURL *string
	// Superuser is only honoured from trusted callers such as the admin CLI.
	Superuser bool
}

// UpdateUserInput holds a partial update; nil fields are left alone.
type UpdateUserInput struct {
	Email     *string
	Username  *string
	FullName  *string
	Password  *string
	Bio       *string
	AvatarURL *string
	IsActive  *bool
	Version   int
}

type UserListInput struct {
	IsActive *bool
	Page     query.Page
}

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*user.User, error)
	Get(ctx context.Context, id string) (*user.User, int, error)
	Update(ctx context.Context, id string, in UpdateUserInput) (*user.User, int, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, in UserListInput) (Page[*user.User], error)

	Productivity(ctx context.Context, id string, days int) (analytics.Productivity, error)
	Workload(ctx context.Context, id string, days int) (analytics.WorkloadSummary, error)
	Suggestions(ctx context.Context, id string) ([]string, error)
	Timeline(ctx context.Context, id string, days int) ([]analytics.ActivityEntry, error)
}

type userService struct {
	deps   Deps
	log    *logger.Logger
	repos  repos.Repos
	writer *dataagg.Writer
	cache  *cache.Loader
	events events.Publisher
}

func NewUserService(deps Deps) UserService {
	deps = deps.withDefaults()
	return &userService{
		deps:   deps,
		log:    deps.Log.With("service", "UserService"),
		repos:  deps.Repos,
		writer: deps.writer(),
		cache:  deps.Cache,
		events: deps.Events,
	}
}

func (s *userService) now() time.Time { return s.deps.Clock.Now() }

func hashPassword(op, password string) (string, error) {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return "", aggregates.ValidationError(op, "password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return "", aggregates.ValidationError(op, "password must be at most %d bytes", maxPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", aggregates.Wrap(aggregates.CodeInternal, op, err)
	}
	return string(hashed), nil
}

func (s *userService) Create(ctx context.Context, in CreateUserInput) (*user.User, error) {
	const op = "UserService.Create"
	hashed, err := hashPassword(op, in.Password)
	if err != nil {
		return nil, err
	}
	u, err := user.New(user.NewParams{
		Email:          strings.TrimSpace(in.Email),
		Username:       strings.TrimSpace(in.Username),
		FullName:       strings.TrimSpace(in.FullName),
		HashedPassword: hashed,
		Bio:            in.Bio,
		AvatarURL:      in.AvatarURL,
	}, user.WithClock(s.deps.Clock))
	if err != nil {
		return nil, err
	}
	if in.Superuser {
		u.GrantSuperuser()
	}

	var box outbox
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		if err := s.ensureUnique(dbc, op, u.ID(), u.Email(), u.Username()); err != nil {
			return err
		}
		if err := s.repos.User.Create(dbc, u); err != nil {
			return err
		}
		box.add(dbc.Ctx, events.UserCreated, u.ID().String(), map[string]any{"username": u.Username()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	box.flush(ctx, s.events)
	s.log.Info("user created", "user_id", u.ID().String())
	return u, nil
}

// ensureUnique rejects an email or username held by a user other than self.
func (s *userService) ensureUnique(dbc dbctx.Context, op string, self vo.UserID, email, username string) error {
	if email != "" {
		other, _, err := s.repos.User.GetByEmail(dbc, email)
		if err != nil && !isNotFound(err) {
			return err
		}
		if other != nil && other.ID() != self {
			return aggregates.DuplicateError(op, "email already registered")
		}
	}
	if username != "" {
		other, _, err := s.repos.User.GetByUsername(dbc, username)
		if err != nil && !isNotFound(err) {
			return err
		}
		if other != nil && other.ID() != self {
			return aggregates.DuplicateError(op, "username already taken")
		}
	}
	return nil
}

func (s *userService) Get(ctx context.Context, id string) (*user.User, int, error) {
	uid, err := vo.ParseUserID(id)
	if err != nil {
		return nil, 0, err
	}
	return s.repos.User.GetByID(dbctx.New(ctx), uid)
}

func (s *userService) Update(ctx context.Context, id string, in UpdateUserInput) (*user.User, int, error) {
	const op = "UserService.Update"
	uid, err := vo.ParseUserID(id)
	if err != nil {
		return nil, 0, err
	}
	if who := actor(ctx); !who.IsZero() && who != uid && !isSuperuser(ctx) {
		return nil, 0, forbidden(op, "users can only update themselves")
	}
	var hashed string
	if in.Password != nil {
		if hashed, err = hashPassword(op, *in.Password); err != nil {
			return nil, 0, err
		}
	}

	var (
		box     outbox
		updated *user.User
		version int
		renamed bool
	)
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		renamed = false
		u, current, err := s.repos.User.GetByID(dbc, uid)
		if err != nil {
			return err
		}
		if err := dataagg.RequireVersionMatch(current, in.Version); err != nil {
			return err
		}
		var fields []string
		var email, username string
		if in.Email != nil {
			email = strings.TrimSpace(*in.Email)
			if err := u.UpdateEmail(email); err != nil {
				return err
			}
			fields = append(fields, "email")
		}
		if in.Username != nil {
			username = strings.TrimSpace(*in.Username)
			renamed = username != u.Username()
			if err := u.UpdateUsername(username); err != nil {
				return err
			}
			fields = append(fields, "username")
		}
		if err := s.ensureUnique(dbc, op, uid, email, username); err != nil {
			return err
		}
		if in.FullName != nil {
			if err := u.UpdateFullName(strings.TrimSpace(*in.FullName)); err != nil {
				return err
			}
			fields = append(fields, "full_name")
		}
		if in.Password != nil {
			if err := u.UpdatePassword(hashed); err != nil {
				return err
			}
			fields = append(fields, "password")
		}
		if in.Bio != nil {
			if err := u.UpdateBio(in.Bio); err != nil {
				return err
			}
			fields = append(fields, "bio")
		}
		if in.AvatarURL != nil {
			u.UpdateAvatar(in.AvatarURL)
			fields = append(fields, "avatar_url")
		}
		if in.IsActive != nil && *in.IsActive != u.IsActive() {
			if *in.IsActive {
				u.Activate()
			} else {
				u.Deactivate()
			}
			fields = append(fields, "is_active")
		}
		if len(fields) == 0 {
			updated, version = u, current
			return nil
		}
		if version, err = s.repos.User.Save(dbc, u, current); err != nil {
			return err
		}
		updated = u
		box.add(dbc.Ctx, events.UserUpdated, uid.String(), map[string]any{"fields": fields})
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	box.flush(ctx, s.events)
	if renamed {
		// Team summaries embed usernames.
		for _, pid := range updated.ProjectIDs() {
			s.cache.Invalidate(ctx, projectCacheKey(pid))
		}
	}
	return updated, version, nil
}

func (s *userService) Delete(ctx context.Context, id string) error {
	const op = "UserService.Delete"
	uid, err := vo.ParseUserID(id)
	if err != nil {
		return err
	}
	if who := actor(ctx); !who.IsZero() && who != uid && !isSuperuser(ctx) {
		return forbidden(op, "users can only delete themselves")
	}
	var box outbox
	err = s.writer.Write(ctx, op, func(dbc dbctx.Context) error {
		box.reset()
		u, _, err := s.repos.User.GetByID(dbc, uid)
		if err != nil {
			return err
		}
		if !analytics.CanDeleteAccount(u) {
			return aggregates.InvalidStateError(op, "user still participates in %d projects", len(u.ProjectIDs()))
		}
		if err := s.repos.User.Delete(dbc, uid); err != nil {
			return err
		}
		box.add(dbc.Ctx, events.UserDeleted, uid.String(), nil)
		return nil
	})
	if err != nil {
		return err
	}
	box.flush(ctx, s.events)
	return nil
}

func (s *userService) List(ctx context.Context, in UserListInput) (Page[*user.User], error) {
	page := in.Page.Normalize()
	items, total, err := s.repos.User.List(dbctx.New(ctx), repos.UserFilter{IsActive: in.IsActive}, page)
	if err != nil {
		return Page[*user.User]{}, err
	}
	return newPage(items, total, page), nil
}

// withTasks loads the user and the tasks assigned to them.
func (s *userService) withTasks(ctx context.Context, id string) (*user.User, []*task.Task, error) {
	u, _, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tasks, err := s.repos.Task.ListByAssignee(dbctx.New(ctx), u.ID())
	if err != nil {
		return nil, nil, err
	}
	return u, tasks, nil
}

// Productivity considers tasks created within the last days days.
func (s *userService) Productivity(ctx context.Context, id string, days int) (analytics.Productivity, error) {
	days = positiveOr(days, 30)
	u, tasks, err := s.withTasks(ctx, id)
	if err != nil {
		return analytics.Productivity{}, err
	}
	cutoff := s.now().AddDate(0, 0, -days)
	recent := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.CreatedAt().Before(cutoff) {
			recent = append(recent, t)
		}
	}
	return analytics.UserProductivity(u, recent), nil
}

func (s *userService) Workload(ctx context.Context, id string, days int) (analytics.WorkloadSummary, error) {
	u, tasks, err := s.withTasks(ctx, id)
	if err != nil {
		return analytics.WorkloadSummary{}, err
	}
	return analytics.UserWorkload(u, tasks, positiveOr(days, 7), s.now()), nil
}

func (s *userService) Suggestions(ctx context.Context, id string) ([]string, error) {
	u, tasks, err := s.withTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	return analytics.UserSuggestions(u, tasks, s.now()), nil
}

func (s *userService) Timeline(ctx context.Context, id string, days int) ([]analytics.ActivityEntry, error) {
	u, _, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repos.Task.ListInvolving(dbctx.New(ctx), u.ID())
	if err != nil {
		return nil, err
	}
	return analytics.ActivityTimeline(u, tasks, positiveOr(days, 30), s.now()), nil
}
