// Package store persists campaign aggregates. Collections (conditions,
// turn order) live as JSON blobs in the database and nowhere else; the
// in-memory model stays fully typed and encoding happens only here.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/encounter"
	"github.com/DoyleJ11/ttrpg-session-backend/internal/vitality"
)

type campaignRecord struct {
	ID            string `gorm:"primaryKey"`
	Name          string
	EncounterJSON []byte
	UpdatedAt     time.Time
}

func (campaignRecord) TableName() string { return "campaigns" }

// Character IDs are campaign-scoped (every campaign can have its own
// "goblin"), so the key is (campaign_id, id).
type characterRecord struct {
	CampaignID         string `gorm:"primaryKey"`
	ID                 string `gorm:"primaryKey"`
	Name               string
	Kind               string
	MaxHP              int
	CurrentHP          int
	TemporaryHP        int
	ArmorClass         int
	Initiative         int
	ConditionsJSON     []byte
	DeathSaveSuccesses int
	DeathSaveFailures  int
	StatusNotes        string
	PlayerID           string
}

func (characterRecord) TableName() string { return "characters" }

func encodeAggregate(s campaign.State) (campaignRecord, []characterRecord, error) {
	rec := campaignRecord{ID: s.CampaignID, Name: s.Name}

	if s.Encounter != nil {
		blob, err := json.Marshal(s.Encounter)
		if err != nil {
			return campaignRecord{}, nil, fmt.Errorf("encode encounter: %w", err)
		}
		rec.EncounterJSON = blob
	}

	chars := make([]characterRecord, 0, len(s.Roster))
	for _, c := range s.Roster {
		conds, err := json.Marshal(c.Conditions)
		if err != nil {
			return campaignRecord{}, nil, fmt.Errorf("encode conditions for %s: %w", c.ID, err)
		}
		chars = append(chars, characterRecord{
			ID:                 c.ID,
			CampaignID:         s.CampaignID,
			Name:               c.Name,
			Kind:               string(c.Kind),
			MaxHP:              c.MaxHP,
			CurrentHP:          c.CurrentHP,
			TemporaryHP:        c.TemporaryHP,
			ArmorClass:         c.ArmorClass,
			Initiative:         c.Initiative,
			ConditionsJSON:     conds,
			DeathSaveSuccesses: c.DeathSaveSuccesses,
			DeathSaveFailures:  c.DeathSaveFailures,
			StatusNotes:        c.StatusNotes,
			PlayerID:           c.PlayerID,
		})
	}
	return rec, chars, nil
}

func decodeAggregate(rec campaignRecord, chars []characterRecord) (campaign.State, error) {
	s := campaign.State{CampaignID: rec.ID, Name: rec.Name}

	if len(rec.EncounterJSON) > 0 {
		var enc encounter.Encounter
		if err := json.Unmarshal(rec.EncounterJSON, &enc); err != nil {
			return campaign.State{}, fmt.Errorf("decode encounter: %w", err)
		}
		s.Encounter = &enc
	}

	for _, cr := range chars {
		var conds []string
		if len(cr.ConditionsJSON) > 0 {
			if err := json.Unmarshal(cr.ConditionsJSON, &conds); err != nil {
				return campaign.State{}, fmt.Errorf("decode conditions for %s: %w", cr.ID, err)
			}
		}
		s.Roster = append(s.Roster, &vitality.Character{
			ID:                 cr.ID,
			Name:               cr.Name,
			Kind:               vitality.Kind(cr.Kind),
			MaxHP:              cr.MaxHP,
			CurrentHP:          cr.CurrentHP,
			TemporaryHP:        cr.TemporaryHP,
			ArmorClass:         cr.ArmorClass,
			Initiative:         cr.Initiative,
			Conditions:         conds,
			DeathSaveSuccesses: cr.DeathSaveSuccesses,
			DeathSaveFailures:  cr.DeathSaveFailures,
			StatusNotes:        cr.StatusNotes,
			PlayerID:           cr.PlayerID,
		})
	}
	return s, nil
}
