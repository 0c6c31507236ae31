/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/storagemodels"
)

// keyCondition is a compiled KeyConditionExpression with its placeholders.
type keyCondition struct {
	expression string
	names      map[string]string
	values     map[string]types.AttributeValue
}

// buildKeyCondition translates a parsed key expression into a key condition on pkAttr/skAttr.
// ok is false when nothing can match, in which case no query needs to be sent.
func buildKeyCondition(pkAttr, skAttr string, e keyexpr.Expr) (kc keyCondition, ok bool) {
	kc = keyCondition{
		expression: "#pk = :pk",
		names:      map[string]string{"#pk": pkAttr},
		values: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: partition(e.Namespace)},
		},
	}

	// Stored sort keys are never empty, which settles every comparison with "".
	var cond string
	switch e.Op {
	case keyexpr.Exact:
		if e.Value == "" {
			return kc, false
		}
		cond = "#sk = :sk"
	case keyexpr.Prefix:
		if e.Value == "" {
			return kc, true
		}
		cond = "begins_with(#sk, :sk)"
	case keyexpr.Less:
		if e.Value == "" {
			return kc, false
		}
		cond = "#sk < :sk"
	case keyexpr.LessEq:
		if e.Value == "" {
			return kc, false
		}
		cond = "#sk <= :sk"
	case keyexpr.Greater:
		if e.Value == "" {
			return kc, true
		}
		cond = "#sk > :sk"
	case keyexpr.GreaterEq:
		if e.Value == "" {
			return kc, true
		}
		cond = "#sk >= :sk"
	case keyexpr.Between:
		switch {
		case e.Value > e.Upper, e.Upper == "":
			return kc, false
		case e.Value == "":
			cond = "#sk <= :sk"
			e.Value = e.Upper
		default:
			cond = "#sk BETWEEN :sk AND :upper"
			kc.values[":upper"] = &types.AttributeValueMemberS{Value: e.Upper}
		}
	default:
		return kc, false
	}

	kc.expression += " AND " + cond
	kc.names["#sk"] = skAttr
	kc.values[":sk"] = &types.AttributeValueMemberS{Value: e.Value}
	return kc, true
}

// query pages through a table or GSI query. The start cursor is applied while reading, and
// reading stops as soon as one item more than the limit has been seen so that the window can
// tell whether the limit cut the scan short.
func (d *Engine) query(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	e := keyexpr.Parse(key)

	pkAttr, skAttr := AttrPartitionKey, AttrSortKey
	var indexName *string
	if opts.Label != "" {
		gsi, ok := d.gsis[opts.Label]
		if !ok {
			return nil, errors.NewValidationError("label", fmt.Sprintf("no GSI configured for label %q", opts.Label))
		}
		pkAttr, skAttr, indexName = gsi.PartitionKeyName, gsi.SortKeyName, aws.String(gsi.IndexName)
	}

	kc, ok := buildKeyCondition(pkAttr, skAttr, e)
	if !ok {
		return &storagemodels.Result{Items: []storagemodels.Item{}}, nil
	}

	// TODO: fold opts.Start into the key condition so cursored pages do not re-read the
	// items before the cursor.
	input := &sdk.QueryInput{
		TableName:                 &d.tableName,
		IndexName:                 indexName,
		KeyConditionExpression:    aws.String(kc.expression),
		ExpressionAttributeNames:  kc.names,
		ExpressionAttributeValues: kc.values,
		ScanIndexForward:          aws.Bool(!opts.Reverse),
	}
	if opts.Limit > 0 {
		input.Limit = aws.Int32(int32(opts.Limit + 1))
	}

	var cands []keyexpr.Candidate
	values := make(map[string]storagemodels.Record)

	// A GSI returns items that share a sort key in no particular order, so a labelled scan
	// reads the whole run of ties at the limit and orders it by primary key.
	var full bool
	paginator := sdk.NewQueryPaginator(d.client, input)
scan:
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Query error: %w", err)
		}
		for _, item := range page.Items {
			cand := keyexpr.Candidate{SortKey: stringAttr(item, skAttr), Key: stringAttr(item, AttrKey)}
			if full && (opts.Label == "" || cand.SortKey != cands[opts.Limit-1].SortKey) {
				break scan
			}
			if !keyexpr.PastStart(cand, opts) {
				continue
			}
			value, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			cands = append(cands, cand)
			values[cand.Key] = value
			if opts.Limit > 0 && len(cands) > opts.Limit {
				full = true
				if opts.Label == "" {
					break scan
				}
			}
		}
	}
	if opts.Label != "" {
		sort.SliceStable(cands, func(i, j int) bool {
			return keyexpr.Before(cands[i], cands[j], opts)
		})
	}

	kept, lastKey := keyexpr.Window(cands, opts)
	items := make([]storagemodels.Item, 0, len(kept))
	for _, c := range kept {
		items = append(items, storagemodels.Item{Key: c.Key, Value: values[c.Key]})
	}
	d.logger.Debug("DynamoDB query", "key", key, "label", string(opts.Label), "items", len(items))
	return &storagemodels.Result{Items: items, LastKey: lastKey}, nil
}
