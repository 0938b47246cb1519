package test

import (
	"time"

	"github.com/menosense/portal/pointer"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/test"
)

func RandomProfile() profiles.Profile {
	uid := test.Faker.UUID().V4()
	return profiles.Profile{
		Id:          uid,
		Uid:         uid,
		Email:       test.Faker.Internet().Email(),
		DisplayName: pointer.FromAny(test.Faker.Person().Name()),
		Img:         pointer.FromAny(test.Faker.Internet().URL()),
		Age:         pointer.FromAny(test.Faker.IntBetween(10, 100)),
		Profession:  pointer.FromAny(RandomProfession()),
		FirstName:   pointer.FromAny(test.Faker.Person().FirstName()),
		LastName:    pointer.FromAny(test.Faker.Person().LastName()),
		CreatedTime: time.Now().Add(-time.Hour).Truncate(time.Millisecond),
		UpdatedTime: time.Now().Truncate(time.Millisecond),
	}
}

func RandomProfession() string {
	return test.Faker.RandomStringElement(profiles.Professions)
}

func RandomForm() profiles.Form {
	return profiles.Form{
		DisplayName: test.Faker.Person().Name(),
		PhotoURL:    "https://example.com/" + test.Faker.UUID().V4() + ".png",
		Age:         pointer.FromAny(test.Faker.IntBetween(10, 100)),
		Profession:  RandomProfession(),
	}
}
