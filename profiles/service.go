package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/metrics"
	"github.com/menosense/portal/status"
	"github.com/menosense/portal/store"
)

const fallbackAvatarUrl = "https://ui-avatars.com/api/?name=%s&background=7c3aed&color=fff"

type service struct {
	repository Repository
	identity   identity.Provider
	board      *status.Board
	validate   *validator.Validate
	logger     *zap.SugaredLogger
}

var _ Service = &service{}

func NewService(repository Repository, provider identity.Provider, board *status.Board, logger *zap.SugaredLogger) (Service, error) {
	validate, err := NewValidator()
	if err != nil {
		return nil, err
	}

	return &service{
		repository: repository,
		identity:   provider,
		board:      board,
		validate:   validate,
		logger:     logger,
	}, nil
}

func FallbackAvatar(email string) string {
	return fmt.Sprintf(fallbackAvatarUrl, escapeComponent(email))
}

// escapeComponent percent-encodes every byte except letters, digits and -_.!~*'()
// Spaces become %20 and never +.
func escapeComponent(value string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreservedComponentByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreservedComponentByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

func (s *service) Get(ctx context.Context, uid string) (*Profile, error) {
	return s.repository.Get(ctx, uid)
}

func (s *service) List(ctx context.Context, pagination store.Pagination) ([]*Profile, error) {
	return s.repository.List(ctx, pagination)
}

func (s *service) Create(ctx context.Context, user identity.User, fullName string) (*Profile, error) {
	fullName = strings.TrimSpace(fullName)
	create := Create{
		Uid:         user.Uid,
		Email:       user.Email,
		DisplayName: fullName,
	}
	names := strings.Fields(fullName)
	if len(names) > 0 {
		create.FirstName = names[0]
	}
	if len(names) > 1 {
		create.LastName = names[1]
	}

	return s.repository.Create(ctx, create)
}

// Load returns the profile view of the user. Values of the session user are defaults which
// are replaced by the stored profile. Failing to read the store is not an error.
func (s *service) Load(ctx context.Context, user identity.User) (*View, error) {
	view := defaultView(user)

	profile, err := s.repository.Get(ctx, user.Uid)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warnw("unable to load stored profile", "uid", user.Uid, zap.Error(err))
		}
		return &view, nil
	}

	overlay(&view, profile)
	return &view, nil
}

// Save writes the form to the identity provider and to the store and reports the outcome
// on the status board of the user
func (s *service) Save(ctx context.Context, idToken string, user identity.User, form Form) (*SaveResult, error) {
	form.Profession = CanonicalProfession(form.Profession)
	form.PhotoURL = strings.TrimSpace(form.PhotoURL)
	if err := validateForm(s.validate, form); err != nil {
		metrics.RecordProfileSave(metrics.OutcomeInvalid)
		return nil, err
	}

	if err := s.board.Begin(user.Uid); err != nil {
		return nil, err
	}

	result, err := s.save(ctx, idToken, user, form)
	if err != nil {
		s.logger.Errorw("unable to save profile", "uid", user.Uid, zap.Error(err))
		s.board.Fail(user.Uid)
		metrics.RecordProfileSave(metrics.OutcomeFailure)
		return nil, err
	}

	s.board.Succeed(user.Uid)
	metrics.RecordProfileSave(metrics.OutcomeSuccess)
	return result, nil
}

func (s *service) save(ctx context.Context, idToken string, user identity.User, form Form) (*SaveResult, error) {
	displayName := strings.TrimSpace(form.DisplayName)
	if displayName == "" {
		displayName = user.Email
	}
	photoURL := form.PhotoURL
	if photoURL == "" {
		photoURL = FallbackAvatar(user.Email)
	}

	if _, err := s.identity.UpdateProfile(ctx, idToken, identity.ProfileUpdate{
		DisplayName: &displayName,
		PhotoURL:    &photoURL,
	}); err != nil {
		return nil, fmt.Errorf("unable to update identity profile: %w", err)
	}

	profile, err := s.repository.Update(ctx, user.Uid, Update{
		Uid:         user.Uid,
		Email:       user.Email,
		DisplayName: displayName,
		Img:         photoURL,
		Age:         form.Age,
		Profession:  form.Profession,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to update stored profile: %w", err)
	}

	reloaded, err := s.identity.Lookup(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("unable to reload user: %w", err)
	}

	view := defaultView(*reloaded)
	overlay(&view, profile)
	return &SaveResult{
		View: view,
		User: *reloaded,
	}, nil
}

func defaultView(user identity.User) View {
	photoURL := user.PhotoURL
	if photoURL == "" {
		photoURL = FallbackAvatar(user.Email)
	}
	return View{
		Uid:         user.Uid,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    photoURL,
	}
}

func overlay(view *View, profile *Profile) {
	if profile.DisplayName != nil && *profile.DisplayName != "" {
		view.DisplayName = *profile.DisplayName
	}
	if profile.Img != nil && *profile.Img != "" {
		view.PhotoURL = *profile.Img
	}
	if profile.Age != nil && *profile.Age != 0 {
		age := *profile.Age
		view.Age = &age
	}
	if profile.Profession != nil && *profile.Profession != "" {
		view.Profession = *profile.Profession
	}
}
