package identity_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/menosense/portal/identity"
	identityTest "github.com/menosense/portal/identity/test"
	"github.com/menosense/portal/test"
)

var _ = Describe("Caching Provider", func() {
	var ctrl *gomock.Controller
	var delegate *identityTest.MockProvider
	var idToken string
	var user identity.User

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		delegate = identityTest.NewMockProvider(ctrl)
		idToken = test.Faker.UUID().V4()
		user = identityTest.RandomUser()
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("serves repeated lookups from the cache", func() {
		provider, err := identity.NewCachingProvider(10, time.Minute, delegate)
		Expect(err).ToNot(HaveOccurred())

		delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&user, nil).Times(1)

		for i := 0; i < 3; i++ {
			result, err := provider.Lookup(context.Background(), idToken)
			Expect(err).ToNot(HaveOccurred())
			Expect(*result).To(Equal(user))
		}
	})

	It("does not cache failed lookups", func() {
		provider, err := identity.NewCachingProvider(10, time.Minute, delegate)
		Expect(err).ToNot(HaveOccurred())

		gomock.InOrder(
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(nil, identity.NewProviderError("INVALID_ID_TOKEN", 400)),
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&user, nil),
		)

		_, err = provider.Lookup(context.Background(), idToken)
		Expect(err).To(HaveOccurred())

		result, err := provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Uid).To(Equal(user.Uid))
	})

	It("expires entries", func() {
		provider, err := identity.NewCachingProvider(10, time.Millisecond, delegate)
		Expect(err).ToNot(HaveOccurred())

		delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&user, nil).Times(2)

		_, err = provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
		time.Sleep(5 * time.Millisecond)
		_, err = provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
	})

	It("evicts the entry when the profile is updated", func() {
		provider, err := identity.NewCachingProvider(10, time.Minute, delegate)
		Expect(err).ToNot(HaveOccurred())

		name := test.Faker.Person().Name()
		updated := user
		updated.DisplayName = name

		gomock.InOrder(
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&user, nil),
			delegate.EXPECT().UpdateProfile(gomock.Any(), idToken, identity.ProfileUpdate{DisplayName: &name}).Return(&updated, nil),
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&updated, nil),
		)

		_, err = provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
		_, err = provider.UpdateProfile(context.Background(), idToken, identity.ProfileUpdate{DisplayName: &name})
		Expect(err).ToNot(HaveOccurred())

		result, err := provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.DisplayName).To(Equal(name))
	})

	It("evicts entries cached while the profile was being updated", func() {
		provider, err := identity.NewCachingProvider(10, time.Minute, delegate)
		Expect(err).ToNot(HaveOccurred())

		name := test.Faker.Person().Name()
		update := identity.ProfileUpdate{DisplayName: &name}
		updated := user
		updated.DisplayName = name

		gomock.InOrder(
			delegate.EXPECT().UpdateProfile(gomock.Any(), idToken, update).
				DoAndReturn(func(ctx context.Context, _ string, _ identity.ProfileUpdate) (*identity.User, error) {
					stale, err := provider.Lookup(ctx, idToken)
					Expect(err).ToNot(HaveOccurred())
					Expect(stale.DisplayName).To(Equal(user.DisplayName))
					return &updated, nil
				}),
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&user, nil),
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&updated, nil),
		)

		_, err = provider.UpdateProfile(context.Background(), idToken, update)
		Expect(err).ToNot(HaveOccurred())

		result, err := provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.DisplayName).To(Equal(name))
	})

	It("evicts the entry when the update fails", func() {
		provider, err := identity.NewCachingProvider(10, time.Minute, delegate)
		Expect(err).ToNot(HaveOccurred())

		update := identity.ProfileUpdate{}
		gomock.InOrder(
			delegate.EXPECT().UpdateProfile(gomock.Any(), idToken, update).
				DoAndReturn(func(ctx context.Context, _ string, _ identity.ProfileUpdate) (*identity.User, error) {
					_, err := provider.Lookup(ctx, idToken)
					Expect(err).ToNot(HaveOccurred())
					return nil, errors.New("token expired")
				}),
			delegate.EXPECT().Lookup(gomock.Any(), idToken).Return(&user, nil).Times(2),
		)

		_, err = provider.UpdateProfile(context.Background(), idToken, update)
		Expect(err).To(HaveOccurred())

		_, err = provider.Lookup(context.Background(), idToken)
		Expect(err).ToNot(HaveOccurred())
	})

	It("delegates sign in calls", func() {
		provider, err := identity.NewCachingProvider(10, time.Minute, delegate)
		Expect(err).ToNot(HaveOccurred())

		session := identityTest.RandomSession()
		delegate.EXPECT().SignInWithPassword(gomock.Any(), user.Email, "secret1").Return(&session, nil)

		result, err := provider.SignInWithPassword(context.Background(), user.Email, "secret1")
		Expect(err).ToNot(HaveOccurred())
		Expect(result.IdToken).To(Equal(session.IdToken))
	})
})
