package models

import "time"

// Delta is a single patchable change to a Draft. The set of implementations
// is closed: ContentChanged, FlagChanged and TimestampTouched.
type Delta interface {
	// Apply mutates d in place.
	Apply(d *Draft)
	// Fields returns the stored fields the change writes, keyed by field name.
	Fields() map[string]any

	delta()
}

// ContentChanged replaces the content; the title is re-derived with it.
type ContentChanged struct {
	Content string
}

func (c ContentChanged) Apply(d *Draft) {
	d.Content = c.Content
	d.Title = DeriveTitle(c.Content)
}

func (c ContentChanged) Fields() map[string]any {
	return map[string]any{
		"content": c.Content,
		"title":   DeriveTitle(c.Content),
	}
}

func (ContentChanged) delta() {}

// FlagChanged sets one boolean flag.
type FlagChanged struct {
	Flag  Flag
	Value bool
}

func (c FlagChanged) Apply(d *Draft) {
	d.setFlag(c.Flag, c.Value)
}

func (c FlagChanged) Fields() map[string]any {
	return map[string]any{string(c.Flag): c.Value}
}

func (FlagChanged) delta() {}

// TimestampTouched moves LastModifiedAt.
type TimestampTouched struct {
	At time.Time
}

func (c TimestampTouched) Apply(d *Draft) {
	d.LastModifiedAt = c.At
}

func (c TimestampTouched) Fields() map[string]any {
	return map[string]any{"last_modified_at": c.At}
}

func (TimestampTouched) delta() {}

// ValidateDelta rejects deltas the stores cannot express.
func ValidateDelta(delta Delta) error {
	if fc, ok := delta.(FlagChanged); ok && !fc.Flag.Valid() {
		return ErrUnknownFlag
	}
	return nil
}
