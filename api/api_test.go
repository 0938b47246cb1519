package api_test

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/menosense/portal/api"
	"github.com/menosense/portal/authz"
	"github.com/menosense/portal/config"
	"github.com/menosense/portal/credentials"
	"github.com/menosense/portal/devices"
	"github.com/menosense/portal/identity"
	identityTest "github.com/menosense/portal/identity/test"
	"github.com/menosense/portal/pointer"
	"github.com/menosense/portal/profiles"
	profilesTest "github.com/menosense/portal/profiles/test"
	"github.com/menosense/portal/session"
	"github.com/menosense/portal/status"
	"github.com/menosense/portal/web"
)

var _ = Describe("Server", func() {
	var e *echo.Echo
	var stub *identityTest.IdentityStub
	var ctrl *gomock.Controller
	var profilesService *profilesTest.MockService
	var healthCheck *api.HealthCheck
	var cookie *http.Cookie

	do := func(method, target, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, target, reader)
		if body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		if cookie != nil {
			req.AddCookie(cookie)
		}

		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if c := session.CookieFrom(rec.Result()); c != nil {
			cookie = c
		}
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v interface{}) {
		Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	message := func(rec *httptest.ResponseRecorder) string {
		body := map[string]interface{}{}
		decode(rec, &body)
		Expect(body).To(HaveKeyWithValue("message", BeAssignableToTypeOf("")))
		return body["message"].(string)
	}

	register := func(email string) api.FlowResult {
		profilesService.EXPECT().Create(gomock.Any(), gomock.Any(), "Jane Doe").Return(&profiles.Profile{}, nil)

		rec := do(http.MethodPost, "/v1/session/register", `{"fullName":"Jane Doe","email":"`+email+`","password":"secret1"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))

		result := api.FlowResult{}
		decode(rec, &result)
		return result
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		profilesService = profilesTest.NewMockService(ctrl)
		stub = identityTest.NewIdentityStub()
		cookie = nil

		logger := zap.NewNop()
		sugared := logger.Sugar()
		provider := identity.NewClient(stub.Config(), http.DefaultClient)
		federated := identity.NewFederated(&identity.FederatedConfig{})
		store := session.NewStore(&session.Config{Secret: "0123456789abcdef0123456789abcdef", MaxAge: time.Hour})
		manager := session.NewManager(store, provider, session.NewHub(), sugared)
		credentialsService := credentials.NewService(provider, federated, profilesService, sugared)
		board := status.NewBoardWithDelay(time.Minute)
		generator := devices.NewGenerator()

		authorizer, err := authz.NewRequestAuthorizer(sugared)
		Expect(err).ToNot(HaveOccurred())
		renderer, err := web.NewRenderer()
		Expect(err).ToNot(HaveOccurred())

		healthCheck = api.NewHealthCheck()
		e, err = api.NewServer(api.ServerParams{
			Handler: api.NewHandler(api.Params{
				Credentials: credentialsService,
				Profiles:    profilesService,
				Board:       board,
				Sessions:    manager,
				Generator:   generator,
				Logger:      sugared,
			}),
			Pages:       web.NewHandler(&config.Config{QuestionnaireUrl: "https://menosense.streamlit.app/"}, credentialsService, profilesService, board, manager, generator, sugared),
			Renderer:    renderer,
			HealthCheck: healthCheck,
			Authorizer:  authorizer,
			Sessions:    manager,
			Logger:      logger,
		})
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		stub.Close()
		ctrl.Finish()
	})

	Describe("Ops", func() {
		It("reports readiness", func() {
			Expect(do(http.MethodGet, "/ready", "").Code).To(Equal(http.StatusServiceUnavailable))
			healthCheck.SetReady(true)
			Expect(do(http.MethodGet, "/ready", "").Code).To(Equal(http.StatusOK))
		})

		It("exposes metrics", func() {
			do(http.MethodGet, "/v1/session", "")
			rec := do(http.MethodGet, "/metrics", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("menosense_http_requests_total"))
		})

		It("serves the pages", func() {
			rec := do(http.MethodGet, "/", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Connect IoT Device"))
		})
	})

	Describe("Session", func() {
		It("is anonymous by default", func() {
			rec := do(http.MethodGet, "/v1/session", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"user":null,"loading":false}`))
		})

		It("validates the login form", func() {
			rec := do(http.MethodPost, "/v1/session/login", `{"email":" ","password":"secret1"}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(message(rec)).To(Equal(credentials.MessageEmailRequired))
		})

		It("rejects requests which don't match the api document", func() {
			rec := do(http.MethodPost, "/v1/session/login", `{"email":5}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("reports invalid credentials", func() {
			stub.AddAccount("jane@example.com", "secret1")

			rec := do(http.MethodPost, "/v1/session/login", `{"email":"jane@example.com","password":"wrong1"}`)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(message(rec)).To(Equal("Invalid email or password!"))
		})

		It("reports throttled sign ins", func() {
			stub.AddAccount("jane@example.com", "secret1")
			stub.FailWith("jane@example.com", "TOO_MANY_ATTEMPTS_TRY_LATER")

			rec := do(http.MethodPost, "/v1/session/login", `{"email":"jane@example.com","password":"secret1"}`)
			Expect(rec.Code).To(Equal(http.StatusTooManyRequests))
			Expect(message(rec)).To(Equal("Too many failed attempts. Try again later!"))
		})

		It("signs in", func() {
			account := stub.AddAccount("jane@example.com", "secret1")

			rec := do(http.MethodPost, "/v1/session/login", `{"email":"jane@example.com","password":"secret1"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))
			result := api.FlowResult{}
			decode(rec, &result)
			Expect(result.Message).To(Equal(credentials.MessageLoginSuccess))
			Expect(result.Session.User.Uid).To(Equal(account.Uid))

			state := session.State{}
			decode(do(http.MethodGet, "/v1/session", ""), &state)
			Expect(state.User).ToNot(BeNil())
			Expect(state.User.Email).To(Equal("jane@example.com"))
		})

		It("registers and sets the display name", func() {
			result := register("jane@example.com")
			Expect(result.Message).To(Equal(credentials.MessageRegistrationSuccess))
			Expect(result.Session.User.DisplayName).To(Equal("Jane Doe"))

			account, ok := stub.Account("jane@example.com")
			Expect(ok).To(BeTrue())
			Expect(account.DisplayName).To(Equal("Jane Doe"))
		})

		It("rejects registering an email twice", func() {
			stub.AddAccount("jane@example.com", "secret1")

			rec := do(http.MethodPost, "/v1/session/register", `{"fullName":"Jane Doe","email":"jane@example.com","password":"secret1"}`)
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(message(rec)).To(Equal("Email already registered. Please login instead."))
		})

		It("sends password reset emails", func() {
			stub.AddAccount("jane@example.com", "secret1")

			rec := do(http.MethodPost, "/v1/session/password-reset", `{"email":"jane@example.com"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(message(rec)).To(Equal(credentials.MessageResetSuccess))
			Expect(stub.PasswordResets()).To(ConsistOf("jane@example.com"))
		})

		It("reports password resets of unknown accounts", func() {
			rec := do(http.MethodPost, "/v1/session/password-reset", `{"email":"nobody@example.com"}`)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(message(rec)).To(Equal("No account found with this email!"))
		})

		It("signs out", func() {
			register("jane@example.com")

			Expect(do(http.MethodDelete, "/v1/session", "").Code).To(Equal(http.StatusNoContent))
			Expect(do(http.MethodGet, "/v1/session", "").Body.String()).To(MatchJSON(`{"user":null,"loading":false}`))
		})

		It("clears sessions whose id token was revoked", func() {
			register("jane@example.com")
			stub.ExpireTokens()

			state := session.State{}
			decode(do(http.MethodGet, "/v1/session", ""), &state)
			Expect(state.User).To(BeNil())
		})
	})

	Describe("Session events", func() {
		It("streams the session state", func() {
			server := httptest.NewServer(e)
			defer server.Close()
			stub.AddAccount("jane@example.com", "secret1")

			// Obtain the session cookie first so both requests share the browser session
			do(http.MethodGet, "/v1/session", "")
			Expect(cookie).ToNot(BeNil())

			req, err := http.NewRequest(http.MethodGet, server.URL+"/v1/session/events", nil)
			Expect(err).ToNot(HaveOccurred())
			req.AddCookie(cookie)
			res, err := http.DefaultClient.Do(req)
			Expect(err).ToNot(HaveOccurred())
			defer res.Body.Close()
			Expect(res.Header.Get(echo.HeaderContentType)).To(Equal("text/event-stream"))

			events := make(chan session.State, 10)
			go func() {
				defer GinkgoRecover()
				reader := bufio.NewReader(res.Body)
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						return
					}
					if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
						state := session.State{}
						Expect(json.Unmarshal([]byte(data), &state)).To(Succeed())
						events <- state
					}
				}
			}()

			Eventually(events).Should(Receive(Equal(session.State{})))

			rec := do(http.MethodPost, "/v1/session/login", `{"email":"jane@example.com","password":"secret1"}`)
			Expect(rec.Code).To(Equal(http.StatusOK))

			Eventually(events).Should(Receive(HaveField("Loading", BeTrue())))
			Eventually(events).Should(Receive(HaveField("User.Email", "jane@example.com")))
		})
	})

	Describe("Profile", func() {
		It("requires a signed in user", func() {
			rec := do(http.MethodGet, "/v1/profile", "")
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))

			rec = do(http.MethodPut, "/v1/profile", `{"age":45}`)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		When("the user is signed in", func() {
			var user *identity.User
			var current profiles.View

			BeforeEach(func() {
				user = register("jane@example.com").Session.User
				current = profiles.View{
					Uid:         user.Uid,
					Email:       user.Email,
					DisplayName: "Jane",
					PhotoURL:    "https://example.com/jane.png",
					Age:         pointer.FromAny(45),
					Profession:  "Doctor",
				}
			})

			It("returns the profile", func() {
				profilesService.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&current, nil)

				rec := do(http.MethodGet, "/v1/profile", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				view := profiles.View{}
				decode(rec, &view)
				Expect(view).To(Equal(current))
			})

			It("keeps the fields missing from the update", func() {
				profilesService.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&current, nil)
				profilesService.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), profiles.Form{
					DisplayName: "Jane Doe",
					PhotoURL:    "https://example.com/jane.png",
					Age:         pointer.FromAny(45),
					Profession:  "Doctor",
				}).DoAndReturn(func(_ any, _ string, u identity.User, form profiles.Form) (*profiles.SaveResult, error) {
					saved := current
					saved.DisplayName = form.DisplayName
					return &profiles.SaveResult{View: saved, User: u}, nil
				})

				rec := do(http.MethodPut, "/v1/profile", `{"displayName":"Jane Doe"}`)
				Expect(rec.Code).To(Equal(http.StatusOK))
				view := profiles.View{}
				decode(rec, &view)
				Expect(view.DisplayName).To(Equal("Jane Doe"))
			})

			It("clears the age", func() {
				profilesService.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&current, nil)
				profilesService.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ any, _ string, u identity.User, form profiles.Form) (*profiles.SaveResult, error) {
						Expect(form.Age).To(BeNil())
						Expect(form.Profession).To(Equal("Doctor"))
						return &profiles.SaveResult{View: current, User: u}, nil
					})

				rec := do(http.MethodPut, "/v1/profile", `{"age":null}`)
				Expect(rec.Code).To(Equal(http.StatusOK))
			})

			It("reports invalid fields", func() {
				profilesService.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&current, nil)
				profilesService.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, profiles.ValidationError{Field: "Age", Message: "Age must be between 10 and 100."})

				rec := do(http.MethodPut, "/v1/profile", `{"age":7}`)
				Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
				Expect(message(rec)).To(Equal("Age must be between 10 and 100."))
			})

			It("reports failed saves", func() {
				profilesService.EXPECT().Load(gomock.Any(), gomock.Any()).Return(&current, nil)
				profilesService.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, profiles.ErrNotFound)

				rec := do(http.MethodPut, "/v1/profile", `{"profession":"IT"}`)
				Expect(rec.Code).To(Equal(http.StatusBadGateway))
				Expect(message(rec)).To(Equal(status.MessageError))
			})

			It("returns the save status", func() {
				rec := do(http.MethodGet, "/v1/profile/status", "")
				Expect(rec.Code).To(Equal(http.StatusOK))
				Expect(rec.Body.String()).To(MatchJSON(`{"state":"idle"}`))
			})
		})
	})

	Describe("Devices", func() {
		It("connects the simulated device", func() {
			rec := do(http.MethodPost, "/v1/devices/readings", "")
			Expect(rec.Code).To(Equal(http.StatusCreated))

			reading := devices.Reading{}
			decode(rec, &reading)
			Expect(reading.Validate()).To(Succeed())

			page := do(http.MethodGet, "/device-details", "")
			Expect(page.Body.String()).To(ContainSubstring(reading.FormattedTemperature() + " °C"))
		})

		It("returns the placeholder reading", func() {
			rec := do(http.MethodGet, "/v1/devices/readings/placeholder", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"temperature":36.8,"heartRate":78,"sleepQuality":"Good","mood":"Happy"}`))
		})
	})
})
