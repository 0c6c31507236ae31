/*
Package registry holds process-wide lookups keyed by Go type or by key namespace.

TypeCache memoizes data derived from a reflect.Type. The model package uses it to resolve
the persistence capabilities of each model type once:

	caps := registry.NewTypeCache[capabilities]()
	c, err := caps.LoadOrCompute(reflect.TypeOf(entity), inspect)

The namespace registry maps the namespace of a primary key to a decoder, so mixed results
of a label scan can be turned back into their models:

	registry.RegisterNamespace("User", func(raw storagemodels.Record) (any, error) {
	    return decodeUser(raw)
	})
	v, err := registry.Decode(item.Key, item.Value)

Both are safe for concurrent use and are typically populated during initialization.
*/
package registry
