package integration_test

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/menosense/portal/api"
	integrationTest "github.com/menosense/portal/integration/test"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/status"
)

var _ = Describe("Profiles", Ordered, func() {
	var browser *integrationTest.Browser
	var uid string

	BeforeAll(func() {
		browser = integrationTest.NewBrowser(server)
	})

	It("reports the service as ready", func() {
		rec := browser.Do(prepareRequest(http.MethodGet, "/ready", ""))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("registers a user", func() {
		rec := browser.Do(prepareRequest(http.MethodPost, "/v1/session/register", "./test/fixtures/register.json"))
		Expect(rec.Code).To(Equal(http.StatusCreated))

		result := api.FlowResult{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Session.User).ToNot(BeNil())
		Expect(result.Session.User.DisplayName).To(Equal("Jane Doe"))
		uid = result.Session.User.Uid
	})

	It("stores the profile of the registered user", func() {
		stored := bson.M{}
		err := database.Collection(profiles.CollectionName).FindOne(testCtx(), bson.M{"uid": uid}).Decode(&stored)
		Expect(err).ToNot(HaveOccurred())
		Expect(stored).To(HaveKeyWithValue("email", "jane.doe@example.com"))
		Expect(stored).To(HaveKeyWithValue("displayName", "Jane Doe"))
		Expect(stored).To(HaveKeyWithValue("firstName", "Jane"))
		Expect(stored).To(HaveKeyWithValue("lastName", "Doe"))
	})

	It("returns the profile", func() {
		rec := browser.Do(prepareRequest(http.MethodGet, "/v1/profile", ""))
		Expect(rec.Code).To(Equal(http.StatusOK))

		view := profiles.View{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
		Expect(view.Uid).To(Equal(uid))
		Expect(view.DisplayName).To(Equal("Jane Doe"))
		Expect(view.Age).To(BeNil())
	})

	It("saves the profile", func() {
		rec := browser.Do(prepareRequest(http.MethodPut, "/v1/profile", "./test/fixtures/profile_update.json"))
		Expect(rec.Code).To(Equal(http.StatusOK))

		view := profiles.View{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
		Expect(view.Age).To(PointTo(Equal(48)))
		Expect(view.Profession).To(Equal("Lecturer"))
		Expect(view.DisplayName).To(Equal("Jane Doe"))
	})

	It("reports the outcome of the save", func() {
		rec := browser.Do(prepareRequest(http.MethodGet, "/v1/profile/status", ""))
		Expect(rec.Code).To(Equal(http.StatusOK))

		saveStatus := status.Status{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &saveStatus)).To(Succeed())
		Expect(saveStatus.State).To(Equal(status.StateSuccess))
		Expect(saveStatus.Message).To(Equal(status.MessageSuccess))
	})

	It("returns the saved profile", func() {
		rec := browser.Do(prepareRequest(http.MethodGet, "/v1/profile", ""))
		Expect(rec.Code).To(Equal(http.StatusOK))

		view := profiles.View{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
		Expect(view.Age).To(PointTo(Equal(48)))
		Expect(view.Profession).To(Equal("Lecturer"))
	})

	It("clears the age", func() {
		rec := browser.Do(prepareRequest(http.MethodPut, "/v1/profile", "./test/fixtures/profile_clear_age.json"))
		Expect(rec.Code).To(Equal(http.StatusOK))

		view := profiles.View{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &view)).To(Succeed())
		Expect(view.Age).To(BeNil())
		Expect(view.Profession).To(Equal("Lecturer"))
	})

	It("rejects invalid ages", func() {
		rec := browser.Do(prepareRequestWithBody(http.MethodPut, "/v1/profile", jsonBody(`{"age":7}`)))
		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
	})

	It("signs out", func() {
		rec := browser.Do(prepareRequest(http.MethodDelete, "/v1/session", ""))
		Expect(rec.Code).To(Equal(http.StatusNoContent))

		rec = browser.Do(prepareRequest(http.MethodGet, "/v1/profile", ""))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("signs in with the login form", func() {
		rec := browser.Do(prepareFormRequest("/login", "email=jane.doe%40example.com&password=secret1"))
		Expect(rec.Code).To(Equal(http.StatusSeeOther))
		Expect(rec.Header().Get(echo.HeaderLocation)).To(Equal("/"))

		rec = browser.Do(prepareRequest(http.MethodGet, "/", ""))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("jane.doe@example.com"))
		Expect(rec.Body.String()).To(ContainSubstring("Login successful!"))
	})
})
