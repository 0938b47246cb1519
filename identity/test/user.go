package test

import (
	"time"

	"github.com/menosense/portal/identity"
	"github.com/menosense/portal/test"
)

func RandomUser() identity.User {
	return identity.User{
		Uid:           test.Faker.UUID().V4(),
		Email:         test.Faker.Internet().Email(),
		DisplayName:   test.Faker.Person().Name(),
		EmailVerified: test.Faker.Bool(),
		Providers:     []string{"password"},
	}
}

func RandomSession() identity.Session {
	return identity.Session{
		IdToken:      test.Faker.UUID().V4(),
		RefreshToken: test.Faker.UUID().V4(),
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         RandomUser(),
	}
}

func RandomPassword() string {
	return test.Faker.Internet().Password() + "Aa1!"
}
