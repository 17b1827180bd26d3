package surreal

import (
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// draftRecord is the stored shape of a draft. The record key equals
// DraftID; DraftID is kept as a plain field so it round-trips as a string.
type draftRecord struct {
	ID             *surrealmodels.RecordID `json:"id,omitempty"`
	DraftID        string                  `json:"draft_id"`
	OwnerID        string                  `json:"owner_id"`
	Title          string                  `json:"title"`
	Content        string                  `json:"content"`
	CreatedAt      time.Time               `json:"created_at"`
	LastModifiedAt time.Time               `json:"last_modified_at"`
	Favorited      bool                    `json:"favorited"`
	Hidden         bool                    `json:"hidden"`
	Archived       bool                    `json:"archived"`
	Published      bool                    `json:"published"`
	PromptOrigin   bool                    `json:"prompt_origin"`
	PromptText     string                  `json:"prompt_text"`
}

func (r draftRecord) draft() models.Draft {
	return models.Draft{
		ID:             r.DraftID,
		OwnerID:        r.OwnerID,
		Title:          r.Title,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt,
		LastModifiedAt: r.LastModifiedAt,
		Favorited:      r.Favorited,
		Hidden:         r.Hidden,
		Archived:       r.Archived,
		Published:      r.Published,
		PromptOrigin:   r.PromptOrigin,
		PromptText:     r.PromptText,
	}
}

func draftsOf(rs []draftRecord) []models.Draft {
	out := make([]models.Draft, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.draft())
	}
	return out
}

type profileRecord struct {
	OwnerID   string    `json:"owner_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type usernameRecord struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

type countRecord struct {
	C int `json:"c"`
}

func draftRID(id string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableDrafts, id)
}

func userRID(ownerID string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableUsers, ownerID)
}

func usernameRID(name string) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(tableUsernames, name)
}
