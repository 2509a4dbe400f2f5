package otterreceiver

// Attribute is a single key/value pair attached to a region or task-graph
// node when it is written out (§3 "attribute model"). Values are kept as
// `any` and type-switched by the sink, since an OTF2 attribute list only
// accepts a handful of concrete OTF2_Type variants.
type Attribute struct {
	Key   AttrKey
	Value any
}

// AttributeList is a small reusable scratch buffer of Attributes. A
// Location and each Region keep one so that repeated Enter/Leave calls on
// the same thread don't allocate a fresh slice per event; Reset clears
// the buffer for reuse without discarding the backing array.
type AttributeList struct {
	items []Attribute
}

// NewAttributeList returns an empty, ready-to-use AttributeList.
func NewAttributeList() *AttributeList {
	return &AttributeList{}
}

// Add appends a key/value pair to the list.
func (a *AttributeList) Add(key AttrKey, value any) {
	a.items = append(a.items, Attribute{Key: key, Value: value})
}

// Reset empties the list while keeping its backing array, so the next
// event's attributes can be appended without a fresh allocation.
func (a *AttributeList) Reset() {
	a.items = a.items[:0]
}

// Items returns the attributes currently held. The returned slice is only
// valid until the next Reset or Add call.
func (a *AttributeList) Items() []Attribute {
	return a.items
}

// Len reports how many attributes are currently buffered.
func (a *AttributeList) Len() int {
	return len(a.items)
}
