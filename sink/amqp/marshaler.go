package amqp

import (
	"github.com/pkg/errors"
	"github.com/streadway/amqp"

	"github.com/ThreeDotsLabs/relay/snapshot"
)

// Headers of the publishing, they allow routing and filtering without decoding the body.
const (
	CorrelationIDHeaderKey = "lineage_correlation_id"
	OrderHeaderKey         = "lineage_order"
	ParentIDHeaderKey      = "lineage_parent_id"
	LocationHeaderKey      = "lineage_location"
)

type Marshaler interface {
	Marshal(s *snapshot.Snapshot) (amqp.Publishing, error)
	Unmarshal(amqpMsg amqp.Delivery) (*snapshot.Snapshot, error)
}

type DefaultMarshaler struct {
	// Body encodes the snapshot, defaults to snapshot.JSONMarshaler.
	Body snapshot.Marshaler

	PostprocessPublishing func(amqp.Publishing) amqp.Publishing
	NotPersistent         bool
}

func (d DefaultMarshaler) body() snapshot.Marshaler {
	if d.Body == nil {
		return snapshot.JSONMarshaler{}
	}
	return d.Body
}

func (d DefaultMarshaler) Marshal(s *snapshot.Snapshot) (amqp.Publishing, error) {
	body, err := d.body().Marshal(s)
	if err != nil {
		return amqp.Publishing{}, err
	}

	headers := amqp.Table{
		CorrelationIDHeaderKey: s.CorrelationID,
		OrderHeaderKey:         int64(s.Order),
		ParentIDHeaderKey:      s.ParentID,
		LocationHeaderKey:      s.Location,
	}

	publishing := amqp.Publishing{
		Headers:       headers,
		ContentType:   d.body().ContentType(),
		CorrelationId: s.CorrelationID,
		MessageId:     s.ID,
		Timestamp:     s.CapturedAt,
		Body:          body,
	}
	if !d.NotPersistent {
		publishing.DeliveryMode = amqp.Persistent
	}

	if d.PostprocessPublishing != nil {
		publishing = d.PostprocessPublishing(publishing)
	}

	return publishing, nil
}

func (d DefaultMarshaler) Unmarshal(amqpMsg amqp.Delivery) (*snapshot.Snapshot, error) {
	s, err := d.body().Unmarshal(amqpMsg.Body)
	if err != nil {
		return nil, err
	}

	if amqpMsg.MessageId != "" && s.ID != amqpMsg.MessageId {
		return nil, errors.Errorf("snapshot id %s does not match message id %s", s.ID, amqpMsg.MessageId)
	}

	return s, nil
}
