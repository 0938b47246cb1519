package status_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menosense/portal/status"
	"github.com/menosense/portal/test"
)

var _ = Describe("Status Board", func() {
	var board *status.Board
	var key string

	BeforeEach(func() {
		board = status.NewBoardWithDelay(50 * time.Millisecond)
		key = test.Faker.UUID().V4()
	})

	It("is idle for unknown keys", func() {
		Expect(board.Get(key)).To(Equal(status.Status{State: status.StateIdle}))
	})

	It("moves to saving when a save begins", func() {
		Expect(board.Begin(key)).To(Succeed())
		Expect(board.Get(key).State).To(Equal(status.StateSaving))
		Expect(board.Get(key).Message).To(BeEmpty())
	})

	It("rejects a save while another is in progress", func() {
		Expect(board.Begin(key)).To(Succeed())
		Expect(board.Begin(key)).To(MatchError(status.ErrSaveInProgress))
	})

	It("clears the success message after the delay", func() {
		Expect(board.Begin(key)).To(Succeed())
		board.Succeed(key)
		Expect(board.Get(key)).To(Equal(status.Status{State: status.StateSuccess, Message: "Changes saved successfully."}))

		Eventually(func() status.State {
			return board.Get(key).State
		}).WithTimeout(time.Second).Should(Equal(status.StateIdle))
	})

	It("keeps the error until the next save", func() {
		Expect(board.Begin(key)).To(Succeed())
		board.Fail(key)
		Expect(board.Get(key)).To(Equal(status.Status{State: status.StateError, Message: "Failed to save changes."}))

		Consistently(func() status.State {
			return board.Get(key).State
		}).WithTimeout(150 * time.Millisecond).Should(Equal(status.StateError))

		Expect(board.Begin(key)).To(Succeed())
		Expect(board.Get(key).State).To(Equal(status.StateSaving))
	})

	It("doesn't clear a newer save when an older timer fires", func() {
		Expect(board.Begin(key)).To(Succeed())
		board.Succeed(key)
		Expect(board.Begin(key)).To(Succeed())

		Consistently(func() status.State {
			return board.Get(key).State
		}).WithTimeout(150 * time.Millisecond).Should(Equal(status.StateSaving))
	})

	It("ignores outcomes without a save in progress", func() {
		board.Succeed(key)
		Expect(board.Get(key).State).To(Equal(status.StateIdle))
	})

	It("tracks keys independently", func() {
		other := test.Faker.UUID().V4()
		Expect(board.Begin(key)).To(Succeed())
		Expect(board.Begin(other)).To(Succeed())
		board.Fail(other)

		Expect(board.Get(key).State).To(Equal(status.StateSaving))
		Expect(board.Get(other).State).To(Equal(status.StateError))
	})
})
