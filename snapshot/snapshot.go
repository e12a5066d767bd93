package snapshot

import (
	"time"
)

// Part is a labeled payload part captured in a snapshot.
type Part struct {
	Label   string
	Content string
}

// Snapshot is an immutable copy of an in-flight message taken at one hop,
// stamped with the lineage of that hop.
//
// Once handed off to a sink, the snapshot is owned by the sink.
type Snapshot struct {
	// ID identifies the snapshot. It becomes the parent id of the next hop.
	ID string

	Parts   []Part
	Headers map[string]string

	// CorrelationID ties together all snapshots of one logical transaction.
	CorrelationID string
	// ParentID is the ID of the snapshot of the previous hop, empty for the first hop.
	ParentID string
	// Order is the 0-based hop counter within the transaction.
	Order int
	// Location is the topology path of the hop.
	Location string

	CapturedAt time.Time
}

// Header returns the captured header value, or an empty string.
func (s *Snapshot) Header(name string) string {
	if v, ok := s.Headers[name]; ok {
		return v
	}

	return ""
}

// Copy returns a deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	cpy := *s
	cpy.Parts = append([]Part(nil), s.Parts...)

	cpy.Headers = make(map[string]string, len(s.Headers))
	for k, v := range s.Headers {
		cpy.Headers[k] = v
	}

	return &cpy
}

// IsRoot returns true if the snapshot was taken at the first hop of the transaction.
func (s *Snapshot) IsRoot() bool {
	return s.ParentID == ""
}
