package lineage

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ThreeDotsLabs/relay"
	"github.com/ThreeDotsLabs/relay/message"
	"github.com/ThreeDotsLabs/relay/pipeline"
)

// Lineage identifies the position of a hop in a causal chain.
type Lineage struct {
	CorrelationID string
	// Order of the current hop, 0 for the first one.
	Order int
	// ParentID is the snapshot id of the previous hop.
	ParentID string
}

type ResolverConfig struct {
	// InflightCorrelationKey is the in-flight property of the process context which holds
	// the correlation id already known to the running process.
	// Defaults to CorrelationIDHeader.
	InflightCorrelationKey string

	// GenerateCorrelationID generates ids of new transactions.
	// Defaults to relay.NewUUID.
	GenerateCorrelationID func() string
}

func (c *ResolverConfig) setDefaults() {
	if c.InflightCorrelationKey == "" {
		c.InflightCorrelationKey = CorrelationIDHeader
	}
	if c.GenerateCorrelationID == nil {
		c.GenerateCorrelationID = relay.NewUUID
	}
}

// Resolver computes the lineage of a hop from the headers of the incoming message
// and stores it back in the headers for the next hop.
//
// Headers are the only state shared between hops, Resolver itself is stateless.
type Resolver struct {
	config ResolverConfig
}

func NewResolver(config ResolverConfig) *Resolver {
	config.setDefaults()

	return &Resolver{config: config}
}

// Resolve reads the lineage of the current hop.
//
// The correlation id is taken from the message header, then from the in-flight properties
// of the process, and generated when neither is available.
// Order defaults to 0 and parent id to an empty string.
//
// When lineage headers are malformed, a *ResolutionError is returned together with
// a fresh lineage, which starts a new chain.
func (r *Resolver) Resolve(sc *pipeline.ServiceContext, msg *message.Message) (Lineage, error) {
	if msg == nil {
		return r.fresh(), &ResolutionError{Err: ErrNoMessage}
	}

	correlationID, err := r.resolveCorrelationID(sc, msg)
	if err != nil {
		return r.fresh(), err
	}

	order, err := r.resolveOrder(msg)
	if err != nil {
		return r.fresh(), err
	}

	parentID, err := r.resolveParentID(msg)
	if err != nil {
		return r.fresh(), err
	}

	return Lineage{
		CorrelationID: correlationID,
		Order:         order,
		ParentID:      parentID,
	}, nil
}

func (r *Resolver) fresh() Lineage {
	return Lineage{CorrelationID: r.config.GenerateCorrelationID()}
}

func (r *Resolver) resolveCorrelationID(sc *pipeline.ServiceContext, msg *message.Message) (string, error) {
	if msg.ContainsHeader(CorrelationIDHeader) {
		id, err := msg.Headers.GetString(CorrelationIDHeader)
		if err != nil {
			return "", &ResolutionError{Header: CorrelationIDHeader, Err: err}
		}
		if id != "" {
			return id, nil
		}
	}

	if sc != nil {
		if id, ok := sc.ProcessContext().InflightProperties().Property(r.config.InflightCorrelationKey); ok && id != "" {
			return id, nil
		}
	}

	return r.config.GenerateCorrelationID(), nil
}

func (r *Resolver) resolveOrder(msg *message.Message) (int, error) {
	if !msg.ContainsHeader(OrderHeader) {
		return 0, nil
	}

	order, err := msg.Headers.GetInt(OrderHeader)
	if err != nil {
		return 0, &ResolutionError{Header: OrderHeader, Err: err}
	}
	if order < 0 {
		return 0, &ResolutionError{Header: OrderHeader, Err: errors.Errorf("negative order %d", order)}
	}
	if order == math.MaxInt {
		return 0, &ResolutionError{Header: OrderHeader, Err: errors.Errorf("order %d cannot be incremented", order)}
	}

	return order, nil
}

func (r *Resolver) resolveParentID(msg *message.Message) (string, error) {
	if !msg.ContainsHeader(ParentIDHeader) {
		return "", nil
	}

	parentID, err := msg.Headers.GetString(ParentIDHeader)
	if err != nil {
		return "", &ResolutionError{Header: ParentIDHeader, Err: err}
	}

	return parentID, nil
}

// Propagate writes the lineage for the next hop onto the message headers:
// the correlation id, order incremented by one and snapshotID as the parent id.
// The correlation id is also stored in the in-flight properties of the process.
//
// When snapshotID is empty (no snapshot was produced for this hop), the parent id
// of the current hop is carried forward, so the chain stays connected.
func (r *Resolver) Propagate(sc *pipeline.ServiceContext, msg *message.Message, l Lineage, snapshotID string) error {
	if msg == nil {
		return ErrNoMessage
	}
	if msg.Headers == nil {
		msg.Headers = message.Headers{}
	}

	msg.Headers.SetString(CorrelationIDHeader, l.CorrelationID)
	msg.Headers.SetInt(OrderHeader, l.Order+1)

	parentID := snapshotID
	if parentID == "" {
		parentID = l.ParentID
	}
	if parentID != "" {
		msg.Headers.SetString(ParentIDHeader, parentID)
	}

	if sc != nil {
		sc.ProcessContext().InflightProperties().SetProperty(r.config.InflightCorrelationKey, l.CorrelationID)
	}

	return nil
}

// CorrelationID returns the correlation id known to the running process, if any.
func (r *Resolver) CorrelationID(sc *pipeline.ServiceContext) (string, bool) {
	if sc == nil {
		return "", false
	}

	id, ok := sc.ProcessContext().InflightProperties().Property(r.config.InflightCorrelationKey)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}
