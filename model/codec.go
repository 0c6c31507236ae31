/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package model

import (
	"reflect"

	"github.com/suparena/modelstore/casing"
	"github.com/suparena/modelstore/hydrate"
	"github.com/suparena/modelstore/storagemodels"
)

// Codec converts entities to and from stored records.
type Codec interface {
	Encode(e Entity) (storagemodels.Record, error)
	Decode(raw storagemodels.Record, e Entity) error
}

// JSONCodec encodes entities through their JSON field mapping. Stored records use the
// snake_case form of each struct field name, unless KeepCase is set; decoding maps them back
// to the field names of the target type. Keys of map-valued fields are stored as given.
type JSONCodec struct {
	KeepCase bool
}

func (c JSONCodec) Encode(e Entity) (storagemodels.Record, error) {
	rec, err := hydrate.Encode(e)
	if err != nil {
		return nil, err
	}
	if c.KeepCase {
		return rec, nil
	}
	return casing.ShapeOf(reflect.TypeOf(e)).Encode(rec), nil
}

func (c JSONCodec) Decode(raw storagemodels.Record, e Entity) error {
	if !c.KeepCase {
		raw = casing.ShapeOf(reflect.TypeOf(e)).Decode(raw)
	}
	return hydrate.Decode(raw, e)
}
