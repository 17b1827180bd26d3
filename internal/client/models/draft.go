// Package models defines the journal record types shared by the gateway,
// the cache engine and the search and prompt components.
package models

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/google/uuid"
)

var ErrUnknownFlag = errors.New("unknown flag")

// Flag names one of the independent boolean markers on a Draft. The value
// doubles as the stored field name.
type Flag string

const (
	FlagFavorited    Flag = "favorited"
	FlagHidden       Flag = "hidden"
	FlagArchived     Flag = "archived"
	FlagPublished    Flag = "published"
	FlagPromptOrigin Flag = "prompt_origin"
)

// Flags lists every Flag in a stable order.
var Flags = []Flag{FlagFavorited, FlagHidden, FlagArchived, FlagPublished, FlagPromptOrigin}

func (f Flag) Valid() bool {
	return slices.Contains(Flags, f)
}

// ParseFlag accepts a flag name in any case; "favorite"/"fav" and "publish"
// style short forms used by the shell are accepted too.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "favorited", "favorite", "fav":
		return FlagFavorited, nil
	case "hidden", "hide":
		return FlagHidden, nil
	case "archived", "archive":
		return FlagArchived, nil
	case "published", "publish":
		return FlagPublished, nil
	case "prompt_origin", "prompt":
		return FlagPromptOrigin, nil
	}
	return "", ErrUnknownFlag
}

// Draft is one journal entry. ID is assigned on the client when the draft is
// created and never changes afterwards. All flag combinations are legal.
type Draft struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	LastModifiedAt time.Time `json:"last_modified_at"`

	Favorited    bool `json:"favorited"`
	Hidden       bool `json:"hidden"`
	Archived     bool `json:"archived"`
	Published    bool `json:"published"`
	PromptOrigin bool `json:"prompt_origin"`

	PromptText string `json:"prompt_text,omitempty"`
}

// DraftOption customizes NewDraft.
type DraftOption func(*Draft)

// FromPrompt marks the draft as written in answer to a suggested prompt.
func FromPrompt(prompt string) DraftOption {
	return func(d *Draft) {
		d.PromptOrigin = true
		d.PromptText = prompt
	}
}

// NewDraft builds a draft for owner with a fresh id and client-estimated
// timestamps.
func NewDraft(ownerID, content string, now time.Time, opts ...DraftOption) Draft {
	d := Draft{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Content:        content,
		Title:          DeriveTitle(content),
		CreatedAt:      now,
		LastModifiedAt: now,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Flag returns the value of f.
func (d Draft) Flag(f Flag) bool {
	switch f {
	case FlagFavorited:
		return d.Favorited
	case FlagHidden:
		return d.Hidden
	case FlagArchived:
		return d.Archived
	case FlagPublished:
		return d.Published
	case FlagPromptOrigin:
		return d.PromptOrigin
	}
	return false
}

func (d *Draft) setFlag(f Flag, v bool) {
	switch f {
	case FlagFavorited:
		d.Favorited = v
	case FlagHidden:
		d.Hidden = v
	case FlagArchived:
		d.Archived = v
	case FlagPublished:
		d.Published = v
	case FlagPromptOrigin:
		d.PromptOrigin = v
	}
}

// DeriveTitle returns the first common.TitleLength runes of the content
// rendered as plain text.
func DeriveTitle(content string) string {
	plain := []rune(PlainText(content))
	if len(plain) > common.TitleLength {
		plain = plain[:common.TitleLength]
	}
	return strings.TrimSpace(string(plain))
}

// SortByRecency orders drafts by LastModifiedAt, newest first. Equal
// timestamps keep their relative order.
func SortByRecency(ds []Draft) {
	slices.SortStableFunc(ds, func(a, b Draft) int {
		return b.LastModifiedAt.Compare(a.LastModifiedAt)
	})
}

// CountFilter restricts an aggregate count to drafts whose Flag equals
// Value. A nil *CountFilter counts everything.
type CountFilter struct {
	Flag  Flag
	Value bool
}

func (f *CountFilter) Matches(d Draft) bool {
	if f == nil {
		return true
	}
	return d.Flag(f.Flag) == f.Value
}

// PublishedOnly is the filter behind the published-count badge.
func PublishedOnly() *CountFilter {
	return &CountFilter{Flag: FlagPublished, Value: true}
}
