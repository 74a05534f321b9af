package models

import "encoding/json"

// RefKind tags the variant held by a RelationRef
type RefKind int

const (
	// RefKeyOnly holds only the related key, pending resolution
	RefKeyOnly RefKind = iota
	// RefFull holds the full related item
	RefFull
	// RefDraft holds a related item that has not been created yet
	RefDraft
)

func (k RefKind) String() string {
	switch k {
	case RefKeyOnly:
		return "KEY_ONLY"
	case RefFull:
		return "FULL"
	case RefDraft:
		return "DRAFT"
	default:
		return "UNKNOWN"
	}
}

// RelationRef is the state of a foreign-key field
type RelationRef struct {
	Kind   RefKind
	RefKey Key
	Item   Item
}

// KeyOnly builds an unresolved reference
func KeyOnly(key Key) RelationRef {
	return RelationRef{Kind: RefKeyOnly, RefKey: key}
}

// Full builds a resolved reference
func Full(key Key, item Item) RelationRef {
	return RelationRef{Kind: RefFull, RefKey: key, Item: item}
}

// Draft builds a reference to an item to be created on save
func Draft(partial Item) RelationRef {
	return RelationRef{Kind: RefDraft, Item: partial}
}

// Key returns the related key. Drafts have none.
func (r RelationRef) Key() Key {
	return r.RefKey
}

// Resolved reports whether derived display data is available
func (r RelationRef) Resolved() bool {
	return r.Kind == RefFull && r.Item != nil
}

// Empty reports whether the reference points nowhere
func (r RelationRef) Empty() bool {
	return r.Kind != RefDraft && r.RefKey == ""
}

type keyOnlyWire struct {
	Type string `json:"type"`
	Key  Key    `json:"key"`
}

// MarshalJSON writes key-only references as {"type":"KEY_ONLY","key":...}
// and full references as the item itself.
func (r RelationRef) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case RefFull, RefDraft:
		return json.Marshal(r.Item)
	default:
		return json.Marshal(keyOnlyWire{Type: RefKeyOnly.String(), Key: r.RefKey})
	}
}
