package types

// DatapointKind fixes the direction of a datapoint at creation time.
// Command datapoints carry commands towards the bus, State datapoints
// carry state updates; a datapoint is never both.
type DatapointKind string

const (
	DatapointCommand DatapointKind = "command"
	DatapointState   DatapointKind = "state"
)

// Datapoint binds one item to one KNX group address. Datapoints are
// created and owned by a binding provider; the bridge core only holds
// transient references and never mutates them.
type Datapoint struct {
	Item     string
	Address  GroupAddress
	Kind     DatapointKind
	DPT      string
	Readable bool
}

func NewDatapoint(item string, address GroupAddress, kind DatapointKind, dpt string, readable bool) *Datapoint {
	return &Datapoint{
		Item:     item,
		Address:  address,
		Kind:     kind,
		DPT:      dpt,
		Readable: readable,
	}
}
