package export_test

import (
	"context"
	"errors"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/profiles/export"
	profilesTest "github.com/menosense/portal/profiles/test"
	"github.com/menosense/portal/store"
)

const (
	profilesSheetIdx = 0
	emailColIdx      = 1
	ageColIdx        = 5
	createdColIdx    = 8
)

var _ = Describe("Report", func() {
	It("adds a row for every profile", func() {
		first := profilesTest.RandomProfile()
		second := profilesTest.RandomProfile()
		second.Age = nil

		file, err := export.NewReport([]*profiles.Profile{&first, &second}).Generate()
		Expect(err).ToNot(HaveOccurred())

		m, err := file.ToSlice()
		Expect(err).ToNot(HaveOccurred())
		rows := m[profilesSheetIdx]
		Expect(rows).To(HaveLen(3))
		Expect(rows[0][emailColIdx]).To(Equal("Email"))
		Expect(rows[1][emailColIdx]).To(Equal(first.Email))
		Expect(rows[1][ageColIdx]).To(Equal(strconv.Itoa(*first.Age)))
		Expect(rows[1][createdColIdx]).To(Equal(first.CreatedTime.UTC().Format(export.ReportTimeFormat)))
		Expect(rows[2][ageColIdx]).To(BeEmpty())
	})

	It("names the sheet", func() {
		file, err := export.NewReport(nil).Generate()
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Sheets).To(HaveLen(1))
		Expect(file.Sheets[0].Name).To(Equal(export.ReportSheetNameProfiles))
	})
})

var _ = Describe("Collect", func() {
	var ctrl *gomock.Controller
	var service *profilesTest.MockService

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		service = profilesTest.NewMockService(ctrl)
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	randomPage := func(count int) []*profiles.Profile {
		list := make([]*profiles.Profile, count)
		for i := range list {
			profile := profilesTest.RandomProfile()
			list[i] = &profile
		}
		return list
	}

	It("pages until a short page is returned", func() {
		first := randomPage(2)
		second := randomPage(1)
		page := store.DefaultPagination().WithLimit(2)
		gomock.InOrder(
			service.EXPECT().List(gomock.Any(), page).Return(first, nil),
			service.EXPECT().List(gomock.Any(), page.WithOffset(2)).Return(second, nil),
		)

		result, err := export.Collect(context.Background(), service, 2)
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(append(first, second...)))
	})

	It("returns list errors", func() {
		service.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("unavailable"))

		_, err := export.Collect(context.Background(), service, 0)
		Expect(err).To(MatchError(ContainSubstring("unavailable")))
	})
})
