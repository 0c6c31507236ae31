/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/enginetest"
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

func TestEngineSuite(t *testing.T) {
	enginetest.Run(t, func(t *testing.T) datastore.Engine {
		return New(newFakeClient(), "models")
	})
}

func TestBuildKeyCondition(t *testing.T) {
	tests := []struct {
		key    string
		expr   string
		sk     string
		upper  string
		nohits bool
	}{
		{key: "n:a", expr: "#pk = :pk AND #sk = :sk", sk: "a"},
		{key: "n:*", expr: "#pk = :pk"},
		{key: "n:a*", expr: "#pk = :pk AND begins_with(#sk, :sk)", sk: "a"},
		{key: "n:<a", expr: "#pk = :pk AND #sk < :sk", sk: "a"},
		{key: "n:<=a", expr: "#pk = :pk AND #sk <= :sk", sk: "a"},
		{key: "n:>a", expr: "#pk = :pk AND #sk > :sk", sk: "a"},
		{key: "n:>=a", expr: "#pk = :pk AND #sk >= :sk", sk: "a"},
		{key: "n:a|b", expr: "#pk = :pk AND #sk BETWEEN :sk AND :upper", sk: "a", upper: "b"},
		{key: "n:|b", expr: "#pk = :pk AND #sk <= :sk", sk: "b"},
		{key: "n:>", expr: "#pk = :pk"},
		{key: "n:b|a", nohits: true},
		{key: "n:<", nohits: true},
		{key: "n:", nohits: true},
	}

	for _, tt := range tests {
		kc, ok := buildKeyCondition("pk", "sk", keyexpr.Parse(tt.key))
		if tt.nohits {
			assert.False(t, ok, tt.key)
			continue
		}
		require.True(t, ok, tt.key)
		assert.Equal(t, tt.expr, kc.expression, tt.key)
		assert.Equal(t, "n", stringAttr(kc.values, ":pk"), tt.key)
		assert.Equal(t, tt.sk, stringAttr(kc.values, ":sk"), tt.key)
		assert.Equal(t, tt.upper, stringAttr(kc.values, ":upper"), tt.key)
		if tt.sk == "" {
			assert.NotContains(t, kc.names, "#sk", "unused placeholders are rejected by DynamoDB")
		}
	}

	kc, ok := buildKeyCondition("pk", "sk", keyexpr.Parse("*"))
	require.True(t, ok)
	assert.Equal(t, defaultNamespace, stringAttr(kc.values, ":pk"))
}

func TestSetItemLayout(t *testing.T) {
	client := newFakeClient()
	engine := New(client, "models")

	err := engine.Set(context.Background(), "User:42", storagemodels.Record{"name": "ann"}, storagemodels.LabelSet{
		storagemodels.Label1: "UserName:ann",
		storagemodels.Label3: "joined",
	})
	require.NoError(t, err)
	require.Len(t, client.puts, 1)

	put := client.puts[0]
	assert.Equal(t, "models", *put.TableName)
	item := put.Item
	assert.Equal(t, "User", stringAttr(item, AttrPartitionKey))
	assert.Equal(t, "42", stringAttr(item, AttrSortKey))
	assert.Equal(t, "User:42", stringAttr(item, AttrKey))
	assert.Equal(t, "UserName", stringAttr(item, "label1_pk"))
	assert.Equal(t, "ann", stringAttr(item, "label1_sk"))
	assert.Equal(t, defaultNamespace, stringAttr(item, "label3_pk"))
	assert.Equal(t, "joined", stringAttr(item, "label3_sk"))
	assert.NotContains(t, item, "label2_pk")

	value, ok := item[AttrValue].(*types.AttributeValueMemberM)
	require.True(t, ok)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "ann"}, value.Value["name"])
}

func TestSetValidation(t *testing.T) {
	client := newFakeClient()
	engine := New(client, "models", WithGSIConfigs(map[storagemodels.Label]GSIConfig{
		storagemodels.Label1: {IndexName: "GSI1", PartitionKeyName: "PK1", SortKeyName: "SK1"},
	}))
	ctx := context.Background()

	err := engine.Set(ctx, "User:", storagemodels.Record{}, storagemodels.LabelSet{})
	assert.True(t, errors.IsValidationError(err))

	err = engine.Set(ctx, "User:1", storagemodels.Record{}, storagemodels.LabelSet{storagemodels.Label2: "x:y"})
	assert.True(t, errors.IsValidationError(err), "label without a GSI")

	err = engine.Set(ctx, "User:1", storagemodels.Record{}, storagemodels.LabelSet{storagemodels.Label1: "x:"})
	assert.True(t, errors.IsValidationError(err))
	assert.Empty(t, client.puts)

	require.NoError(t, engine.Set(ctx, "User:1", storagemodels.Record{}, storagemodels.LabelSet{storagemodels.Label1: "x:y"}))
	assert.Equal(t, "x", stringAttr(client.puts[0].Item, "PK1"))
	assert.Equal(t, "y", stringAttr(client.puts[0].Item, "SK1"))
}

func TestQueryInput(t *testing.T) {
	client := newFakeClient()
	engine := New(client, "models")
	ctx := context.Background()

	_, err := engine.Get(ctx, "UserName:a*", storagemodels.GetOptions{
		Label:   storagemodels.Label1,
		Limit:   10,
		Reverse: true,
	})
	require.NoError(t, err)
	require.Len(t, client.queries, 1)

	in := client.queries[0]
	assert.Equal(t, "label1", *in.IndexName)
	assert.Equal(t, int32(11), *in.Limit, "one extra item tells whether the limit truncated")
	assert.False(t, *in.ScanIndexForward)
	assert.Equal(t, "label1_pk", in.ExpressionAttributeNames["#pk"])
	assert.Equal(t, "label1_sk", in.ExpressionAttributeNames["#sk"])

	_, err = engine.Get(ctx, "User:*", storagemodels.GetOptions{})
	require.NoError(t, err)
	in = client.queries[1]
	assert.Nil(t, in.IndexName)
	assert.Nil(t, in.Limit)
	assert.True(t, *in.ScanIndexForward)

	res, err := engine.Get(ctx, "User:b|a", storagemodels.GetOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Len(t, client.queries, 2, "an empty range is answered without a query")

	_, err = engine.Get(ctx, "x:*", storagemodels.GetOptions{Label: "label9"})
	assert.True(t, errors.IsValidationError(err))
}

func TestSingleUsesGetItem(t *testing.T) {
	client := newFakeClient()
	engine := New(client, "models")
	ctx := context.Background()

	require.NoError(t, engine.Set(ctx, "User:1", storagemodels.Record{"n": float64(1)}, storagemodels.LabelSet{}))
	res, err := engine.Get(ctx, "User:1", storagemodels.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, storagemodels.Record{"n": float64(1)}, res.Value)
	assert.Empty(t, client.queries)

	res, err = engine.Get(ctx, "User:", storagemodels.GetOptions{})
	require.NoError(t, err)
	assert.Nil(t, res.Value)
}

func TestErrorsAreWrapped(t *testing.T) {
	boom := stderrors.New("throttled")
	client := newFakeClient()
	client.getErr, client.putErr, client.deleteErr, client.queryErr = boom, boom, boom, boom
	engine := New(client, "models")
	ctx := context.Background()

	_, err := engine.Get(ctx, "User:1", storagemodels.GetOptions{})
	assert.ErrorIs(t, err, boom)
	_, err = engine.Get(ctx, "User:*", storagemodels.GetOptions{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, engine.Set(ctx, "User:1", storagemodels.Record{}, storagemodels.LabelSet{}), boom)
	assert.ErrorIs(t, engine.Remove(ctx, "User:1"), boom)
	assert.NoError(t, engine.Close())
}

func TestCorruptItem(t *testing.T) {
	client := newFakeClient()
	client.items["User\x00"+"1"] = map[string]types.AttributeValue{
		AttrPartitionKey: &types.AttributeValueMemberS{Value: "User"},
		AttrSortKey:      &types.AttributeValueMemberS{Value: "1"},
		AttrKey:          &types.AttributeValueMemberS{Value: "User:1"},
		AttrValue:        &types.AttributeValueMemberS{Value: "not a map"},
	}
	engine := New(client, "models")

	_, err := engine.Get(context.Background(), "User:1", storagemodels.GetOptions{})
	assert.ErrorContains(t, err, "User:1")
}
