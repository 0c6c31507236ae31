/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds entities shared by engine and end-to-end tests.
package testmodels

import (
	"github.com/go-openapi/strfmt"

	"github.com/suparena/modelstore/model"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/storagemodels"
)

var (
	// RatingSystemByID is the primary index of rating systems.
	RatingSystemByID = query.BuildIndex(query.IndexOptions[string]{Namespace: "RatingSystem"})

	// RatingSystemByName finds rating systems by name.
	RatingSystemByName = query.BuildIndex(query.IndexOptions[string]{
		Namespace: "RatingSystemName",
		Label:     storagemodels.Label1,
	})

	// RatingSystemByCreated orders rating systems by creation time.
	RatingSystemByCreated = query.BuildIndex(query.IndexOptions[strfmt.DateTime]{
		Namespace: "RatingSystemCreated",
		Label:     storagemodels.Label2,
		Converter: query.DateTimeConverter(),
	})
)

type RatingSystem struct {
	model.Persistence

	// Timestamp when the rating system was created.
	// Required: true
	// Format: date-time
	CreatedAt *strfmt.DateTime `json:"CreatedAt"`

	// A description of the rating system.
	// Required: true
	Description *string `json:"Description"`

	// Unique identifier for the rating system.
	// Required: true
	ID *string `json:"Id"`

	// Name of the rating system.
	// Required: true
	Name *string `json:"Name"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty"`

	// Timestamp when the rating system was last updated.
	// Required: true
	// Format: date-time
	UpdatedAt *strfmt.DateTime `json:"UpdatedAt"`
}

// NewRatingSystem returns a rating system created at createdAt.
func NewRatingSystem(id, name, description string, createdAt strfmt.DateTime) *RatingSystem {
	return &RatingSystem{
		ID:          &id,
		Name:        &name,
		Description: &description,
		CreatedAt:   &createdAt,
		UpdatedAt:   &createdAt,
	}
}

func (r *RatingSystem) Keys() []query.Key {
	keys := []query.Key{
		RatingSystemByID.Exact(deref(r.ID)),
		RatingSystemByName.Exact(deref(r.Name)),
	}
	if r.CreatedAt != nil {
		keys = append(keys, RatingSystemByCreated.Exact(*r.CreatedAt))
	}
	return keys
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
