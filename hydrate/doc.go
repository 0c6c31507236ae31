/*
Package hydrate reconstructs typed values from raw stored records.

Two strategies are supported. A Constructor receives the raw record directly:

	ctor := hydrate.Constructor[*Order](func(raw storagemodels.Record) (*Order, error) {
	    o := &Order{}
	    return o, hydrate.Decode(raw, o)
	})

Types implementing Hydratable can instead be created empty and told to hydrate themselves:

	ctor := hydrate.FromEmpty(func() *Order { return &Order{} })

Model entities use model.Hydrator, which additionally records the keys the entity was loaded
under so that later saves can detect key migrations.
*/
package hydrate
