// Package directory provides the user directory and record repository the
// notification pipeline reads from.
package directory

import (
	"context"
	"errors"

	"github.com/daoboard/notifier/pkg/dao"
)

var (
	ErrUserNotFound   = errors.New("directory: user not found")
	ErrRecordNotFound = errors.New("directory: record not found")
	ErrUserExists     = errors.New("directory: user already exists")
)

// User is an application account.
type User struct {
	ID          string   `json:"id" bson:"_id"`
	Email       string   `json:"email" bson:"email"`
	DisplayName string   `json:"displayName" bson:"displayName"`
	Role        dao.Role `json:"role" bson:"role"`
	Active      bool     `json:"isActive" bson:"isActive"`
}

// Users resolves and manages user accounts.
type Users interface {
	User(ctx context.Context, id string) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ActiveUsers(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u User) (User, error)
	Activate(ctx context.Context, id string) (User, error)
}

// Records fetches case files.
type Records interface {
	Record(ctx context.Context, id string) (dao.Record, error)
}
