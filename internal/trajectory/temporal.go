package trajectory

import (
	"fmt"
	"time"

	"github.com/entrainlab/entrain/internal/models"
)

// Window sizes interaction-frequency aggregation.
type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month" // fixed 30 days
)

func (w Window) duration() (time.Duration, error) {
	switch w {
	case WindowDay:
		return 24 * time.Hour, nil
	case WindowWeek:
		return 7 * 24 * time.Hour, nil
	case WindowMonth:
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown window %q (want day, week or month)", w)
	}
}

// TimeSeries is an ordered sequence of observations with a unit label.
type TimeSeries struct {
	Points []Point
	Unit   string
}

// Values returns just the observation values, in order.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// InteractionFrequency counts conversation starts per window across the
// corpus span. Windows with no conversations appear as zero counts, so a
// sparse corpus still yields a dense series for trend fitting.
func InteractionFrequency(corpus *models.Corpus, w Window) (TimeSeries, error) {
	size, err := w.duration()
	if err != nil {
		return TimeSeries{}, err
	}
	series := TimeSeries{Unit: fmt.Sprintf("conversations per %s", w)}

	var starts []time.Time
	for _, conv := range corpus.Conversations {
		if t, ok := conv.StartTime(); ok {
			starts = append(starts, t)
		}
	}
	if len(starts) == 0 {
		return series, nil
	}
	sortTimes(starts)

	first, last := starts[0], starts[len(starts)-1]
	for current := first; !current.After(last); current = current.Add(size) {
		windowEnd := current.Add(size)
		count := 0
		for _, t := range starts {
			if !t.Before(current) && t.Before(windowEnd) {
				count++
			}
		}
		series.Points = append(series.Points, Point{Timestamp: current, Value: float64(count)})
	}
	return series, nil
}

func sortTimes(ts []time.Time) {
	for i := 1; i < len(ts); i++ {
		for j := i; j > 0 && ts[j].Before(ts[j-1]); j-- {
			ts[j], ts[j-1] = ts[j-1], ts[j]
		}
	}
}

// SessionDurations returns each conversation's duration in minutes,
// stamped at its start time. Conversations with fewer than two events are
// skipped.
func SessionDurations(corpus *models.Corpus) TimeSeries {
	series := TimeSeries{Unit: "minutes"}
	for _, conv := range corpus.Conversations {
		d, ok := conv.Duration()
		if !ok {
			continue
		}
		start, _ := conv.StartTime()
		series.Points = append(series.Points, Point{
			Timestamp: start,
			Value:     d.Minutes(),
		})
	}
	return series
}

// Time-of-day bins, six hours each.
const (
	BinNight     = "night"     // 00:00-06:00
	BinMorning   = "morning"   // 06:00-12:00
	BinAfternoon = "afternoon" // 12:00-18:00
	BinEvening   = "evening"   // 18:00-24:00
)

// Distribution is a binned count of user interactions by time of day.
// Proportions sum to 1 when Total > 0 and are all zero otherwise.
type Distribution struct {
	Bins        []string  `json:"bins"`
	Counts      []int     `json:"counts"`
	Proportions []float64 `json:"proportions"`
	Total       int       `json:"total"`
}

// Proportion returns the share of interactions in the named bin.
func (d Distribution) Proportion(bin string) float64 {
	for i, b := range d.Bins {
		if b == bin {
			return d.Proportions[i]
		}
	}
	return 0
}

// TimeOfDayDistribution bins user turns by local hour of day. Assistant
// turns are excluded: the distribution measures when the user reaches for
// the assistant, not when it replies.
func TimeOfDayDistribution(corpus *models.Corpus) Distribution {
	d := Distribution{
		Bins:        []string{BinNight, BinMorning, BinAfternoon, BinEvening},
		Counts:      make([]int, 4),
		Proportions: make([]float64, 4),
	}
	for _, conv := range corpus.Conversations {
		for _, e := range conv.Events {
			if e.Role != models.RoleUser || e.Timestamp.IsZero() {
				continue
			}
			d.Counts[e.Timestamp.Hour()/6]++
		}
	}
	for _, c := range d.Counts {
		d.Total += c
	}
	if d.Total > 0 {
		for i, c := range d.Counts {
			d.Proportions[i] = float64(c) / float64(d.Total)
		}
	}
	return d
}
