package db

import (
	"fmt"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/trackbank/internal/models"
)

// itemRecord is the stored shape of a catalog item.
type itemRecord struct {
	ID                 surrealmodels.RecordID `json:"id"`
	FilePath           *string                `json:"file_path,omitempty"`
	Embedding          []float32              `json:"embedding,omitempty"`
	Section            int                    `json:"section"`
	Tempo              *float64               `json:"tempo,omitempty"`
	Key                *string                `json:"musical_key,omitempty"`
	Duration           float64                `json:"duration"`
	PromptText         *string                `json:"prompt_text,omitempty"`
	ArcName            *string                `json:"arc_name,omitempty"`
	SourceProduction   *string                `json:"source_production,omitempty"`
	VibeTags           []string               `json:"vibe_tags,omitempty"`
	MoodKeywords       []string               `json:"mood_keywords,omitempty"`
	TimesUsed          int                    `json:"times_used"`
	LastUsedProduction *string                `json:"last_used_production,omitempty"`
	LastUsedAt         *time.Time             `json:"last_used_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at,omitempty"`
}

// productionRecord is the stored shape of a production.
type productionRecord struct {
	ID            surrealmodels.RecordID `json:"id"`
	Number        int                    `json:"number"`
	Title         string                 `json:"title"`
	TargetMinutes int                    `json:"target_minutes"`
	CreatedAt     time.Time              `json:"created_at"`
	PublishedAt   *time.Time             `json:"published_at,omitempty"`
}

// RecordIDString safely extracts the string ID from a SurrealDB RecordID.
// Returns an error if the ID is not a string type.
func RecordIDString(id surrealmodels.RecordID) (string, error) {
	s, ok := id.ID.(string)
	if !ok {
		return "", fmt.Errorf("unexpected ID type: %T (expected string)", id.ID)
	}
	return s, nil
}

func (r itemRecord) toModel() (models.CatalogItem, error) {
	id, err := RecordIDString(r.ID)
	if err != nil {
		return models.CatalogItem{}, err
	}
	return models.CatalogItem{
		ID:                   id,
		FilePath:             deref(r.FilePath),
		Embedding:            r.Embedding,
		Section:              r.Section,
		Tempo:                r.Tempo,
		Key:                  r.Key,
		Duration:             r.Duration,
		PromptText:           deref(r.PromptText),
		ArcName:              deref(r.ArcName),
		SourceProduction:     deref(r.SourceProduction),
		VibeTags:             r.VibeTags,
		MoodKeywords:         r.MoodKeywords,
		TimesUsed:            r.TimesUsed,
		LastUsedProductionID: r.LastUsedProduction,
		LastUsedAt:           r.LastUsedAt,
		CreatedAt:            r.CreatedAt,
	}, nil
}

// importFields returns the attributes written on import. Usage fields are never part of it.
func importFields(item models.CatalogItem) map[string]any {
	fields := map[string]any{
		"section":       item.Section,
		"duration":      item.Duration,
		"vibe_tags":     nonNil(item.VibeTags),
		"mood_keywords": nonNil(item.MoodKeywords),
	}
	if len(item.Embedding) > 0 {
		fields["embedding"] = item.Embedding
	}
	if item.Tempo != nil {
		fields["tempo"] = *item.Tempo
	}
	if item.Key != nil {
		fields["musical_key"] = *item.Key
	}
	for name, v := range map[string]string{
		"file_path":         item.FilePath,
		"prompt_text":       item.PromptText,
		"arc_name":          item.ArcName,
		"source_production": item.SourceProduction,
	} {
		if v != "" {
			fields[name] = v
		}
	}
	return fields
}

func (r productionRecord) toModel() (models.Production, error) {
	id, err := RecordIDString(r.ID)
	if err != nil {
		return models.Production{}, err
	}
	return models.Production{
		ID:            id,
		Number:        r.Number,
		Title:         r.Title,
		TargetMinutes: r.TargetMinutes,
		CreatedAt:     r.CreatedAt,
		PublishedAt:   r.PublishedAt,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
