/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/modelstore/datastore"
	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/observability"
	"github.com/suparena/modelstore/storagemodels"
)

// Engine implements datastore.Engine on a single DynamoDB table. Records live under
// pk=namespace, sk=sort key; each label is projected onto its own GSI.
type Engine struct {
	client    Client
	tableName string
	gsis      map[storagemodels.Label]GSIConfig
	logger    observability.Logger
}

var _ datastore.CloseableEngine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithGSIConfigs replaces DefaultGSIConfigs. Labels without a configuration are rejected.
func WithGSIConfigs(configs map[storagemodels.Label]GSIConfig) Option {
	return func(d *Engine) { d.gsis = configs }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(d *Engine) { d.logger = observability.OrNoOp(l) }
}

// New creates an engine on tableName.
func New(client Client, tableName string, opts ...Option) *Engine {
	d := &Engine{
		client:    client,
		tableName: tableName,
		gsis:      DefaultGSIConfigs,
		logger:    &observability.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewFromCredentials creates the DynamoDB client and the engine in one step.
func NewFromCredentials(ctx context.Context, awsAccessKey, awsSecretKey, awsRegion, endpoint, tableName string, opts ...Option) (*Engine, error) {
	client, err := NewDynamoDBClient(ctx, awsAccessKey, awsSecretKey, awsRegion, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	d := New(client, tableName, opts...)
	d.logger.Info("DynamoDB engine initialized", "table", tableName, "region", awsRegion)
	return d, nil
}

// Get retrieves one record with GetItem, or queries the table or a label GSI.
func (d *Engine) Get(ctx context.Context, key string, opts storagemodels.GetOptions) (*storagemodels.Result, error) {
	if keyexpr.Single(key, opts) {
		return d.getOne(ctx, key)
	}
	return d.query(ctx, key, opts)
}

func (d *Engine) getOne(ctx context.Context, key string) (*storagemodels.Result, error) {
	ns, sk := keyexpr.Split(key)
	if sk == "" {
		return &storagemodels.Result{}, nil
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &d.tableName,
		Key:            primaryKey(ns, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return &storagemodels.Result{}, nil
	}

	value, err := decodeValue(out.Item)
	if err != nil {
		return nil, err
	}
	return &storagemodels.Result{Value: value}, nil
}

// Set writes the record with PutItem, replacing any previous item and its GSI projections.
func (d *Engine) Set(ctx context.Context, key string, value storagemodels.Record, labels storagemodels.LabelSet) error {
	ns, sk := keyexpr.Split(key)
	if sk == "" {
		return errors.NewValidationError("key", fmt.Sprintf("key %q has an empty sort key", key))
	}

	av, err := attributevalue.MarshalMap(value)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	item := primaryKey(ns, sk)
	item[AttrKey] = &types.AttributeValueMemberS{Value: key}
	item[AttrValue] = &types.AttributeValueMemberM{Value: av}

	for label, expr := range labels {
		gsi, ok := d.gsis[label]
		if !ok {
			return errors.NewValidationError("labels", fmt.Sprintf("no GSI configured for label %q", label))
		}
		lns, lsk := keyexpr.Split(expr)
		if lsk == "" {
			return errors.NewValidationError("labels", fmt.Sprintf("%s key %q has an empty sort key", label, expr))
		}
		item[gsi.PartitionKeyName] = &types.AttributeValueMemberS{Value: partition(lns)}
		item[gsi.SortKeyName] = &types.AttributeValueMemberS{Value: lsk}
	}

	_, err = d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Remove deletes the item stored under key. Deleting an absent item is not an error.
func (d *Engine) Remove(ctx context.Context, key string) error {
	ns, sk := keyexpr.Split(key)
	if sk == "" {
		return nil
	}

	_, err := d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &d.tableName,
		Key:       primaryKey(ns, sk),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (d *Engine) Close() error { return nil }

func partition(namespace string) string {
	if namespace == "" {
		return defaultNamespace
	}
	return namespace
}

func primaryKey(namespace, sortKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPartitionKey: &types.AttributeValueMemberS{Value: partition(namespace)},
		AttrSortKey:      &types.AttributeValueMemberS{Value: sortKey},
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func decodeValue(item map[string]types.AttributeValue) (storagemodels.Record, error) {
	m, ok := item[AttrValue].(*types.AttributeValueMemberM)
	if !ok {
		return nil, fmt.Errorf("item %q has no %q map attribute", stringAttr(item, AttrKey), AttrValue)
	}
	var value storagemodels.Record
	if err := attributevalue.UnmarshalMap(m.Value, &value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	if value == nil {
		value = storagemodels.Record{}
	}
	return value, nil
}
