package devices_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/menosense/portal/devices"
	"github.com/menosense/portal/test"
)

var _ = Describe("Devices", func() {
	var generator *devices.Generator

	BeforeEach(func() {
		generator = devices.NewGeneratorWithSource(test.Source)
	})

	Describe("Connect", func() {
		It("always produces readings within the device ranges", func() {
			for _, reading := range generator.Sample(1000) {
				Expect(reading.Temperature).To(BeNumerically(">=", 36.0))
				Expect(reading.Temperature).To(BeNumerically("<=", 38.0))
				Expect(reading.HeartRate).To(BeNumerically(">=", 60))
				Expect(reading.HeartRate).To(BeNumerically("<=", 100))
				Expect(devices.SleepQualities.Contains(reading.SleepQuality)).To(BeTrue())
				Expect(devices.Moods.Contains(reading.Mood)).To(BeTrue())
				Expect(reading.Validate()).To(Succeed())
			}
		})

		It("rounds the temperature to one decimal", func() {
			for _, reading := range generator.Sample(100) {
				Expect(math.Abs(reading.Temperature*10 - math.Round(reading.Temperature*10))).To(BeNumerically("<", 1e-9))
			}
		})

		It("eventually produces every sleep quality and mood", func() {
			sleep := map[string]bool{}
			moods := map[string]bool{}
			for _, reading := range generator.Sample(1000) {
				sleep[reading.SleepQuality] = true
				moods[reading.Mood] = true
			}
			Expect(sleep).To(HaveLen(devices.SleepQualities.Cardinality()))
			Expect(moods).To(HaveLen(devices.Moods.Cardinality()))
		})
	})

	Describe("ReadingOrPlaceholder", func() {
		It("returns the placeholder when there is no reading", func() {
			reading := devices.ReadingOrPlaceholder(nil)
			Expect(reading.FormattedTemperature()).To(Equal("36.8"))
			Expect(reading.HeartRate).To(Equal(78))
			Expect(reading.SleepQuality).To(Equal("Good"))
			Expect(reading.Mood).To(Equal("Happy"))
		})

		It("returns the reading when present", func() {
			reading := generator.Connect()
			Expect(devices.ReadingOrPlaceholder(&reading)).To(Equal(reading))
		})
	})

	Describe("Validate", func() {
		It("rejects out of range values", func() {
			reading := devices.Placeholder()
			reading.HeartRate = 101
			Expect(reading.Validate()).To(HaveOccurred())

			reading = devices.Placeholder()
			reading.Mood = "Sleepy"
			Expect(reading.Validate()).To(HaveOccurred())
		})
	})
})
