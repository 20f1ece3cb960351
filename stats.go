package rangebitmap

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/hupe1980/rangebitmap/internal/container"
)

// Stats is a point-in-time snapshot of a sealed structure's shape,
// useful for capacity planning and debugging representation choices.
type Stats struct {
	Rows             uint64 `json:"rows"`
	MinValue         uint64 `json:"min_value"`
	MaxValue         uint64 `json:"max_value"`
	BitWidth         int    `json:"bit_width"`
	Slices           int    `json:"slices"`
	Containers       int    `json:"containers"`
	ArrayContainers  int    `json:"array_containers"`
	BitsetContainers int    `json:"bitset_containers"`
	RunContainers    int    `json:"run_containers"`
	PayloadBytes     int    `json:"payload_bytes"`
}

// Stats returns statistics over the structure's slices and containers.
func (rb *RangeBitmap) Stats() Stats {
	st := Stats{
		Rows:     rb.rowCount,
		MinValue: rb.min,
		MaxValue: rb.max,
		BitWidth: rb.bitWidth,
		Slices:   len(rb.slices),
	}
	for _, s := range rb.slices {
		for _, c := range s.containers {
			st.Containers++
			st.PayloadBytes += c.EncodedSize()
			switch c.Kind() {
			case container.KindArray:
				st.ArrayContainers++
			case container.KindBitset:
				st.BitsetContainers++
			case container.KindRun:
				st.RunContainers++
			}
		}
	}
	return st
}

// MarshalJSON implements json.Marshaler.
func (s Stats) MarshalJSON() ([]byte, error) {
	type alias Stats // avoid recursing into this method
	return json.Marshal(alias(s))
}

func (s Stats) String() string {
	return fmt.Sprintf("rows=%d bitWidth=%d slices=%d containers=%d (array=%d bitset=%d run=%d) payload=%dB",
		s.Rows, s.BitWidth, s.Slices, s.Containers,
		s.ArrayContainers, s.BitsetContainers, s.RunContainers, s.PayloadBytes)
}
