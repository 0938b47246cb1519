package identity_test

import (
	"context"
	"net/url"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menosense/portal/identity"
	identityTest "github.com/menosense/portal/identity/test"
	"github.com/menosense/portal/test"
)

var _ = Describe("Federated", func() {
	It("is disabled without client credentials", func() {
		federated := identity.NewFederated(&identity.FederatedConfig{})
		Expect(federated.Enabled()).To(BeFalse())

		_, err := federated.AuthCodeURL("state")
		Expect(err).To(MatchError(identity.ErrFederatedDisabled))
		_, err = federated.Exchange(context.Background(), "code")
		Expect(err).To(MatchError(identity.ErrFederatedDisabled))
	})

	Describe("Google", func() {
		var stub *identityTest.GoogleStub
		var federated identity.Federated

		BeforeEach(func() {
			stub = identityTest.NewGoogleStub()
			federated = identity.NewFederated(stub.Config("http://localhost/auth/google/callback"))
		})

		AfterEach(func() {
			stub.Close()
		})

		It("builds an authorization url with the state and account chooser", func() {
			Expect(federated.Enabled()).To(BeTrue())

			authUrl, err := federated.AuthCodeURL("abc")
			Expect(err).ToNot(HaveOccurred())

			parsed, err := url.Parse(authUrl)
			Expect(err).ToNot(HaveOccurred())
			Expect(parsed.Query().Get("state")).To(Equal("abc"))
			Expect(parsed.Query().Get("prompt")).To(Equal("select_account"))
			Expect(parsed.Query().Get("client_id")).To(Equal(identityTest.TestGoogleClientId))
			Expect(parsed.Query().Get("redirect_uri")).To(Equal("http://localhost/auth/google/callback"))
			Expect(parsed.Query().Get("scope")).To(Equal("openid email profile"))
		})

		It("exchanges the code for the user's identity", func() {
			subject := test.Faker.UUID().V4()
			email := test.Faker.Internet().Email()
			name := test.Faker.Person().Name()
			stub.Authorize("code-1", subject, email, name)

			result, err := federated.Exchange(context.Background(), "code-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(result.ProviderId).To(Equal(identity.GoogleProviderId))
			Expect(result.Subject).To(Equal(subject))
			Expect(result.Email).To(Equal(email))
			Expect(result.Name).To(Equal(name))
			Expect(result.IdToken).ToNot(BeEmpty())
		})

		It("fails for an unknown code", func() {
			_, err := federated.Exchange(context.Background(), "unknown")
			Expect(err).To(HaveOccurred())
		})
	})
})
