/*
Package storagemodels defines the data structures exchanged between the query layer and the
storage engines.

Key Types:

Record:
A raw stored value, as a plain map in storage naming convention:

	rec := storagemodels.Record{"id": "u1", "the_x": 42.0}

GetOptions:
Retrieval options compiled by a query and handed to an engine:

	opts := storagemodels.GetOptions{
	    Label:   storagemodels.Label1,
	    Start:   "2024-01-01",
	    Limit:   25,
	    Reverse: true,
	}

Result:
The raw engine response. Exact lookups on a primary key fill Value (nil when absent); every
other lookup fills Items and, when a limit cut the scan short, LastKey.

StreamResult:
Results of paging through a multi-result query with metadata:

	type StreamResult[T any] struct {
	    Item  T          // The hydrated entity
	    Key   string     // The key the item was stored under
	    Error error      // Item-specific error, if any
	    Meta  StreamMeta // Metadata about this item
	}

These types provide a consistent interface across the different engine adapters.
*/
package storagemodels
