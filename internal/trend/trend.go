// Package trend keeps the bounded history of total units used by the trend chart.
package trend

import (
	"time"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// Capacity is the maximum number of samples retained.
const Capacity = 50

const labelLayout = "15:04:05"

// Append adds a sample and drops the oldest ones beyond Capacity.
func Append(buf []models.Snapshot, sample models.Snapshot) []models.Snapshot {
	buf = append(buf, sample)
	if over := len(buf) - Capacity; over > 0 {
		buf = append([]models.Snapshot(nil), buf[over:]...)
	}
	return buf
}

// Series is the line-chart projection of the buffer.
type Series struct {
	Label  string   `json:"label"`
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// Chart projects samples onto chart labels (time of day in loc) and values.
func Chart(buf []models.Snapshot, loc *time.Location) Series {
	if loc == nil {
		loc = time.Local
	}

	series := Series{
		Label:  "Total units in stock",
		Labels: make([]string, 0, len(buf)),
		Data:   make([]int64, 0, len(buf)),
	}
	for _, s := range buf {
		series.Labels = append(series.Labels, s.Timestamp.In(loc).Format(labelLayout))
		series.Data = append(series.Data, s.TotalUnits)
	}
	return series
}
