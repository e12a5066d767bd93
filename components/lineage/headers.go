package lineage

// Header names carried by every tagged message.
// They are the wire contract between hops: renaming any of them breaks correlation
// with hops which are already running.
const (
	CorrelationIDHeader = "lineage_correlation_id"
	OrderHeader         = "lineage_order"
	ParentIDHeader      = "lineage_parent_id"
	ESBTypeHeader       = "lineage_esb_type"
)

// DefaultLocationSeparator separates segments of a location string.
const DefaultLocationSeparator = "/"
