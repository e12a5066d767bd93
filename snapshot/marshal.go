package snapshot

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Marshaler encodes snapshots for transports.
type Marshaler interface {
	Marshal(s *Snapshot) ([]byte, error)
	Unmarshal(data []byte) (*Snapshot, error)
	ContentType() string
}

type partRecord struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// record is the wire form of a snapshot.
type record struct {
	ID               string            `json:"id"`
	CorrelationID    string            `json:"correlation_id"`
	ParentID         string            `json:"parent_id"`
	Order            int               `json:"order"`
	Location         string            `json:"location"`
	Parts            []partRecord      `json:"parts"`
	Headers          map[string]string `json:"headers"`
	CapturedAt       time.Time         `json:"captured_at"`
	CapturedAtMillis int64             `json:"captured_at_millis"`
}

// JSONMarshaler encodes snapshots as JSON documents.
type JSONMarshaler struct{}

func (JSONMarshaler) ContentType() string {
	return "application/json"
}

func (JSONMarshaler) Marshal(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, errors.New("cannot marshal nil snapshot")
	}

	r := record{
		ID:               s.ID,
		CorrelationID:    s.CorrelationID,
		ParentID:         s.ParentID,
		Order:            s.Order,
		Location:         s.Location,
		Parts:            make([]partRecord, 0, len(s.Parts)),
		Headers:          s.Headers,
		CapturedAt:       s.CapturedAt,
		CapturedAtMillis: s.CapturedAt.UnixNano() / int64(time.Millisecond),
	}
	if r.Headers == nil {
		r.Headers = map[string]string{}
	}
	for _, p := range s.Parts {
		r.Parts = append(r.Parts, partRecord{Label: p.Label, Content: p.Content})
	}

	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot marshal snapshot %s", s.ID)
	}

	return b, nil
}

func (JSONMarshaler) Unmarshal(data []byte) (*Snapshot, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal snapshot")
	}

	s := &Snapshot{
		ID:            r.ID,
		CorrelationID: r.CorrelationID,
		ParentID:      r.ParentID,
		Order:         r.Order,
		Location:      r.Location,
		Parts:         make([]Part, 0, len(r.Parts)),
		Headers:       r.Headers,
		CapturedAt:    r.CapturedAt,
	}
	if s.Headers == nil {
		s.Headers = map[string]string{}
	}
	for _, p := range r.Parts {
		s.Parts = append(s.Parts, Part{Label: p.Label, Content: p.Content})
	}

	return s, nil
}
