package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/menosense/portal/errors"
	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/store"
)

const (
	CollectionName = "users"
)

var (
	ErrNotFound  = fmt.Errorf("profile %w", errors.NotFound)
	ErrDuplicate = fmt.Errorf("%w: profile already exists", errors.Conflict)
)

//go:generate go tool mockgen -source=./profiles.go -destination=./test/mock_profiles.go -package test

type Service interface {
	Get(ctx context.Context, uid string) (*Profile, error)
	List(ctx context.Context, pagination store.Pagination) ([]*Profile, error)
	Create(ctx context.Context, user identity.User, fullName string) (*Profile, error)
	Load(ctx context.Context, user identity.User) (*View, error)
	Save(ctx context.Context, idToken string, user identity.User, form Form) (*SaveResult, error)
}

type Repository interface {
	Get(ctx context.Context, uid string) (*Profile, error)
	List(ctx context.Context, pagination store.Pagination) ([]*Profile, error)
	Create(ctx context.Context, create Create) (*Profile, error)
	Update(ctx context.Context, uid string, update Update) (*Profile, error)
}

// Profile is the document stored for every registered user. It's keyed by the identity
// provider's uid.
type Profile struct {
	Id          string    `bson:"_id"`
	Uid         string    `bson:"uid"`
	Email       string    `bson:"email"`
	DisplayName *string   `bson:"displayName,omitempty"`
	Img         *string   `bson:"img,omitempty"`
	Age         *int      `bson:"age,omitempty"`
	Profession  *string   `bson:"profession,omitempty"`
	FirstName   *string   `bson:"firstName,omitempty"`
	LastName    *string   `bson:"lastName,omitempty"`
	CreatedTime time.Time `bson:"createdTime,omitempty"`
	UpdatedTime time.Time `bson:"updatedTime,omitempty"`
}

// Create holds the fields written once, when the user registers
type Create struct {
	Uid         string `bson:"uid"`
	Email       string `bson:"email"`
	DisplayName string `bson:"displayName"`
	Img         string `bson:"img"`
	FirstName   string `bson:"firstName"`
	LastName    string `bson:"lastName"`
}

// Update holds the fields written by the profile form. Fields which are not part of the
// form are left untouched; a nil age clears the stored one.
type Update struct {
	Uid         string `bson:"uid"`
	Email       string `bson:"email"`
	DisplayName string `bson:"displayName"`
	Img         string `bson:"img"`
	Age         *int   `bson:"age"`
	Profession  string `bson:"profession"`
}

// View is what the profile page shows
type View struct {
	Uid         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
	Age         *int   `json:"age"`
	Profession  string `json:"profession"`
}

// Heading is the display name or the local part of the email when the name is blank
func (v View) Heading() string {
	if v.DisplayName != "" {
		return v.DisplayName
	}
	local, _, _ := strings.Cut(v.Email, "@")
	return local
}

func (v View) Initial() string {
	for _, c := range v.Heading() {
		return string(unicode.ToUpper(c))
	}
	return ""
}

// Form is the user submitted profile. Age is nil when the field was left blank.
type Form struct {
	DisplayName string `json:"displayName" validate:"max=256"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url,max=2048"`
	Age         *int   `json:"age" validate:"omitempty,min=10,max=100"`
	Profession  string `json:"profession" validate:"omitempty,profession"`
}

type SaveResult struct {
	View View
	User identity.User
}
