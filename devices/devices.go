// Package devices simulates the wearable the portal pretends to connect to. Readings are
// random, display-only and never persisted.
package devices

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	SleepQualityGood    = "Good"
	SleepQualityAverage = "Average"
	SleepQualityPoor    = "Poor"

	MoodCalm      = "Calm"
	MoodStressed  = "Stressed"
	MoodIrritable = "Irritable"
	MoodHappy     = "Happy"

	MinTemperature = 36.0
	MaxTemperature = 38.0
	MinHeartRate   = 60
	MaxHeartRate   = 100
)

var (
	sleepQualities = []string{SleepQualityGood, SleepQualityAverage, SleepQualityPoor}
	moods          = []string{MoodCalm, MoodStressed, MoodIrritable, MoodHappy}

	SleepQualities = mapset.NewSet[string](sleepQualities...)
	Moods          = mapset.NewSet[string](moods...)
)

type Reading struct {
	Temperature  float64 `json:"temperature"`
	HeartRate    int     `json:"heartRate"`
	SleepQuality string  `json:"sleepQuality"`
	Mood         string  `json:"mood"`
}

func (r Reading) FormattedTemperature() string {
	return fmt.Sprintf("%.1f", r.Temperature)
}

// Validate returns an error if any value is outside of the ranges a connected device produces
func (r Reading) Validate() error {
	if r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return fmt.Errorf("temperature %.1f is out of range", r.Temperature)
	}
	if r.HeartRate < MinHeartRate || r.HeartRate > MaxHeartRate {
		return fmt.Errorf("heart rate %d is out of range", r.HeartRate)
	}
	if !SleepQualities.Contains(r.SleepQuality) {
		return fmt.Errorf("unknown sleep quality %q", r.SleepQuality)
	}
	if !Moods.Contains(r.Mood) {
		return fmt.Errorf("unknown mood %q", r.Mood)
	}
	return nil
}

// Placeholder is shown when the details page is opened without a reading
func Placeholder() Reading {
	return Reading{
		Temperature:  36.8,
		HeartRate:    78,
		SleepQuality: SleepQualityGood,
		Mood:         MoodHappy,
	}
}

func ReadingOrPlaceholder(reading *Reading) Reading {
	if reading == nil {
		return Placeholder()
	}
	return *reading
}

type Generator struct {
	mu   sync.Mutex
	rand *rand.Rand
}

func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

func NewGeneratorWithSource(source rand.Source) *Generator {
	return &Generator{
		rand: rand.New(source),
	}
}

// Connect simulates connecting to the device and returns a fresh reading
func (g *Generator) Connect() Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	temperature := MinTemperature + g.rand.Float64()*(MaxTemperature-MinTemperature)
	return Reading{
		Temperature:  math.Round(temperature*10) / 10,
		HeartRate:    MinHeartRate + g.rand.Intn(MaxHeartRate-MinHeartRate),
		SleepQuality: sleepQualities[g.rand.Intn(len(sleepQualities))],
		Mood:         moods[g.rand.Intn(len(moods))],
	}
}

func (g *Generator) Sample(count int) []Reading {
	readings := make([]Reading, 0, count)
	for i := 0; i < count; i++ {
		readings = append(readings, g.Connect())
	}
	return readings
}
