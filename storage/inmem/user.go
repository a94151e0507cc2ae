package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/darasa/darasa/core/user"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[string]user.User
}

var _ user.Repository = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]user.User)}
}

func (r *UserRepo) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
next:
	for _, usr := range r.all() {
		for _, ex := range excludedUsers {
			if ex.ID == usr.ID {
				continue next
			}
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (r *UserRepo) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if usr.ID == "" {
		usr.ID = newID()
	}
	r.users[usr.ID] = usr
	return usr, nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usr, ok := r.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	for _, usr := range r.all() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UserRepo) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	for _, usr := range r.all() {
		if usr.Username == username || usr.Email == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UserRepo) QueryUsers(ctx context.Context, schoolID string, filter *user.QueryFilter) ([]user.User, error) {
	var users []user.User
	for _, usr := range r.all() {
		if schoolID != "" && usr.SchoolID != schoolID {
			continue
		}
		if filter != nil && !matchUser(usr, filter) {
			continue
		}
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(usr.Name), s) &&
			!strings.Contains(usr.Username, s) &&
			!strings.Contains(usr.Email, s) {
			return false
		}
	}
	if filter.Roles != nil {
		var found bool
		for _, role := range filter.Roles {
			if usr.RoleStartsWith(role) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (r *UserRepo) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orig, ok := r.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		orig.Name = usr.Name
	}
	if usr.Username != "" {
		orig.Username = usr.Username
	}
	if usr.Email != "" {
		orig.Email = usr.Email
	}
	if usr.Roles != nil {
		orig.Roles = usr.Roles
	}
	if usr.StudentIDs != nil {
		orig.StudentIDs = usr.StudentIDs
	}
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = usr.UpdatedAt
	r.users[usr.ID] = orig
	return orig, nil
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	usr, ok := r.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.LastLogin = at
	r.users[id] = usr
	return nil
}

func (r *UserRepo) DeleteUsersByID(ctx context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		delete(r.users, id)
	}
	return nil
}

func (r *UserRepo) all() []user.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.User, 0, len(r.users))
	for _, usr := range r.users {
		users = append(users, usr)
	}
	return users
}
