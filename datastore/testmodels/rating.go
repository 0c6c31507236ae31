/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"github.com/suparena/modelstore/model"
	"github.com/suparena/modelstore/query"
	"github.com/suparena/modelstore/storagemodels"
)

// RatingByID is the primary index of ratings.
var RatingByID = query.BuildIndex(query.IndexOptions[string]{Namespace: "Rating"})

// RatingsOfSystem lists the ratings of one rating system, keyed by player.
func RatingsOfSystem(systemID string) query.Index[string] {
	return query.BuildIndex(query.IndexOptions[string]{Namespace: "RatingSystem_" + systemID + "_Rating"})
}

// RatingsByScore orders the ratings of one rating system by score.
func RatingsByScore(systemID string) query.Index[int] {
	return query.BuildIndex(query.IndexOptions[int]{
		Namespace: "RatingSystem_" + systemID + "_Score",
		Label:     storagemodels.Label1,
		Converter: query.PaddedIntConverter[int](6),
	})
}

// Rating is a player's score in a rating system. Each rating is shadowed under its system so
// that a system's ratings can be listed by player or by score.
type Rating struct {
	model.Persistence

	ID       string `json:"Id"`
	SystemID string `json:"SystemId"`
	Player   string `json:"Player"`
	Score    int    `json:"Score"`
}

func (r *Rating) Keys() []query.Key {
	return []query.Key{RatingByID.Exact(r.ID)}
}

func (r *Rating) ShadowKeys() [][]query.Key {
	return [][]query.Key{{
		RatingsOfSystem(r.SystemID).Exact(r.Player),
		RatingsByScore(r.SystemID).Exact(r.Score),
	}}
}
