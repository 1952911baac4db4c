package browserstore

// Record is the attribute map of one model.
type Record map[string]any

// Model is what the sync layer needs from a host model.
type Model interface {
	// ID returns the identifier, or nil when the model has never been saved.
	ID() any
	// IDAttribute names the attribute holding the identifier.
	IDAttribute() string
	// SetID assigns a generated identifier.
	SetID(id string)
	// ToJSON returns a snapshot of the attributes.
	ToJSON() Record
	// Collection returns the owning collection, or nil.
	Collection() Collection
	// Storage returns the model's own storage binding, or nil.
	Storage() *BrowserStorage
}

// Collection is what the sync layer needs from a host collection.
type Collection interface {
	// IDs returns the identifiers of the current members, in order.
	IDs() []any
	// Storage returns the collection's storage binding, or nil.
	Storage() *BrowserStorage
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
