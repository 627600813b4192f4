/*
Package kvobject maps hierarchical domain objects onto a key-value store.

Each entity lives in a hash keyed by its class, identifier and optional parent
chain. Saving an entity registers it in a per-class membership set, maintains
time-ordered sort indices and cascades to its child collections.

Key layout for an Order "o1" nested under Customer "c1":

	Customer:c1_h:Order:o1                 primary key
	Customer:c1_h:Order:o1_h               attribute hash
	Customer:c1_h:Order:o1_history         snapshot log
	Customer:c1_h:Order:o1_h:collections   names of child collections
	Customer:c1_h:Order:o1_h:items         members of the "items" collection
	Customer:c1_h:Orders::created_at       sort index of c1's orders
	Orders                                 membership set of every Order

Stores are pluggable through datastore.Store: Redis, DynamoDB, bbolt and an
in-memory store are provided.

Basic Usage:

	m := kvobject.New(redis.New(redis.DefaultConfig(), logger), kvobject.WithLogger(logger))
	orders := m.MustRegister(kvobject.ClassConfig{
	    Name:    "Order",
	    Formats: map[string]kvobject.Format{"total": kvobject.FormatNumber},
	    SortBy:  []string{"total"},
	})

	o := orders.New(map[string]any{"order_id": "o1", "total": 42})
	if err := o.Save(ctx); err != nil {
	    return err
	}

	found, err := orders.Find(ctx, "o1")
	total, err := found.Get(ctx, "total") // int64(42)
	recent, err := orders.RecentlyCreated(ctx, 5)
*/
package kvobject
