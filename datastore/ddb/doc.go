/*
Package ddb provides a DynamoDB implementation of datastore.Store.

Every store key maps to one partition of a single table. Each hash field,
set member and sorted-set member is its own item, distinguished by a sort key
prefix:

	PK = "Order:o1_h"          SK = "h#total"          V = "42"
	PK = "Orders"              SK = "s#Order:o1"
	PK = "Orders::created_at"  SK = "z#Order:o1_h"     N = 1700000000

Sorted-set ranges are computed client side after a consistent Query of the
partition. The store does not implement datastore.Batcher; writes are applied
one item at a time.

	client, err := ddb.NewDynamoDBClient(ctx, key, secret, "us-east-1", "", logger)
	store := ddb.NewDynamodbDataStore(client, ddb.TableConfig{TableName: "kvobject"})
*/
package ddb
