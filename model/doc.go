/*
Package model persists entities under a primary key, labelled secondary keys and optional
shadow copies, keeping every stored location in step with the entity's fields.

An entity embeds Persistence and declares its access paths:

	type User struct {
	    model.Persistence
	    ID    string `json:"id"`
	    Email string `json:"email"`
	}

	func (u *User) Keys() []query.Key {
	    return []query.Key{
	        ByID.Exact(u.ID),
	        ByEmail.Exact(u.Email),
	    }
	}

Exactly one key must target a primary index; secondary keys need distinct labels.
Entities that implement Shadowed (at most five key-sets by default) or UnboundedShadowed are
also written under every shadow primary key, so a record can be found through several
namespaces.

A Store saves and deletes entities through a datastore.Engine:

	store := model.NewStore(engine, model.WithLogger(logger))
	err := store.Save(ctx, user)

Persistence remembers where the entity was last saved or loaded from. When a key-driving
field changes, Save removes the stale primary and shadow records before writing the new
ones. Entities loaded with Store.Hydrate, or through a Hydrator, start out tracked.
*/
package model
