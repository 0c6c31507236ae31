/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeClient is an in-memory table that understands the key conditions the engine emits.
type fakeClient struct {
	mu      sync.Mutex
	items   map[string]map[string]types.AttributeValue
	queries []*sdk.QueryInput
	puts    []*sdk.PutItemInput

	getErr    error
	putErr    error
	deleteErr error
	queryErr  error
}

func newFakeClient() *fakeClient {
	return &fakeClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemID(key map[string]types.AttributeValue) string {
	return stringAttr(key, AttrPartitionKey) + "\x00" + stringAttr(key, AttrSortKey)
}

func (f *fakeClient) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &sdk.GetItemOutput{Item: f.items[itemID(in.Key)]}, nil
}

func (f *fakeClient) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items[itemID(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	delete(f.items, itemID(in.Key))
	return &sdk.DeleteItemOutput{}, nil
}

func (f *fakeClient) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, in)
	if f.queryErr != nil {
		return nil, f.queryErr
	}

	pkAttr := in.ExpressionAttributeNames["#pk"]
	skAttr, ok := in.ExpressionAttributeNames["#sk"]
	if !ok {
		skAttr = AttrSortKey
		if in.IndexName != nil {
			skAttr = *in.IndexName + "_sk"
		}
	}
	pk := stringAttr(in.ExpressionAttributeValues, ":pk")
	lo := stringAttr(in.ExpressionAttributeValues, ":sk")
	hi := stringAttr(in.ExpressionAttributeValues, ":upper")

	var match func(string) bool
	switch cond := strings.TrimPrefix(strings.TrimPrefix(*in.KeyConditionExpression, "#pk = :pk"), " AND "); cond {
	case "":
		match = func(string) bool { return true }
	case "#sk = :sk":
		match = func(s string) bool { return s == lo }
	case "begins_with(#sk, :sk)":
		match = func(s string) bool { return strings.HasPrefix(s, lo) }
	case "#sk < :sk":
		match = func(s string) bool { return s < lo }
	case "#sk <= :sk":
		match = func(s string) bool { return s <= lo }
	case "#sk > :sk":
		match = func(s string) bool { return s > lo }
	case "#sk >= :sk":
		match = func(s string) bool { return s >= lo }
	case "#sk BETWEEN :sk AND :upper":
		match = func(s string) bool { return lo <= s && s <= hi }
	default:
		return nil, fmt.Errorf("fake: unsupported key condition %q", cond)
	}

	var found []map[string]types.AttributeValue
	for _, item := range f.items {
		sk, has := item[skAttr].(*types.AttributeValueMemberS)
		if has && stringAttr(item, pkAttr) == pk && match(sk.Value) {
			found = append(found, item)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		a, b := stringAttr(found[i], skAttr), stringAttr(found[j], skAttr)
		if a == b {
			a, b = stringAttr(found[i], AttrKey), stringAttr(found[j], AttrKey)
			if in.IndexName != nil {
				// GSIs promise no order among equal sort keys.
				return a > b
			}
		}
		if in.ScanIndexForward != nil && !*in.ScanIndexForward {
			return a > b
		}
		return a < b
	})

	if in.ExclusiveStartKey != nil {
		after := stringAttr(in.ExclusiveStartKey, AttrKey)
		for i, item := range found {
			if stringAttr(item, AttrKey) == after {
				found = found[i+1:]
				break
			}
		}
	}

	out := &sdk.QueryOutput{}
	if in.Limit != nil && len(found) > int(*in.Limit) {
		found = found[:*in.Limit]
		last := found[len(found)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			AttrPartitionKey: last[AttrPartitionKey],
			AttrSortKey:      last[AttrSortKey],
			AttrKey:          last[AttrKey],
		}
	}
	out.Items = found
	out.Count = int32(len(found))
	return out, nil
}
