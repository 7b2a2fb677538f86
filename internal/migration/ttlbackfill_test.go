package migration

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"resale-pricing-backend/internal/domain"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTable implements ddb.Client over canned scan pages and records the
// conditional updates issued against it.
type fakeTable struct {
	pages   [][]map[string]types.AttributeValue
	scanErr error

	scans     int
	updates   []*dynamodb.UpdateItemInput
	updateErr error
}

func (f *fakeTable) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	page := f.scans
	f.scans++
	if page >= len(f.pages) {
		return &dynamodb.ScanOutput{}, nil
	}

	out := &dynamodb.ScanOutput{Items: f.pages[page]}
	if page < len(f.pages)-1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("page-%d", page)},
		}
	}
	return out, nil
}

func (f *fakeTable) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, params)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *fakeTable) GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{}, nil
}

func (f *fakeTable) PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return &dynamodb.QueryOutput{}, nil
}

func (f *fakeTable) BatchWriteItem(context.Context, *dynamodb.BatchWriteItemInput, ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *fakeTable) TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func scanItem(pk, sk, saleDate string, ttl int64) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
	if saleDate != "" {
		item["SaleDate"] = &types.AttributeValueMemberS{Value: saleDate}
	}
	if ttl != 0 {
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)}
	}
	return item
}

func TestBackfillAssignsMissingTTL(t *testing.T) {
	table := &fakeTable{pages: [][]map[string]types.AttributeValue{
		{
			scanItem("TENANT#t#PRODUCT#p1", "SALE#2025-01-15#s1", "2025-01-15", 0),
			scanItem("TENANT#t#PRODUCT#p2", "SALE#2025-02-01#s2", "2025-02-01", 1893456000),
		},
		{
			scanItem("TENANT#t#PRODUCT#p3", "SALE#2025-03-01#s3", "2025-03-01", 0),
		},
	}}

	backfill := NewBackfill(table, BackfillConfig{TableName: "sales"}, nil, nil)
	result, err := backfill.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)
	assert.False(t, result.DryRun)

	// Exactly one conditional write per item that lacked a ttl.
	require.Len(t, table.updates, 2)
	for _, update := range table.updates {
		assert.Contains(t, *update.ConditionExpression, "attribute_not_exists")
	}

	// The assigned expiry is sale date plus the retention window.
	wantTTL := domain.ComputeTTL(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), domain.DefaultRetentionYears)
	var gotTTL string
	for _, av := range table.updates[0].ExpressionAttributeValues {
		if n, ok := av.(*types.AttributeValueMemberN); ok {
			gotTTL = n.Value
		}
	}
	assert.Equal(t, strconv.FormatInt(wantTTL, 10), gotTTL)
}

func TestBackfillDryRunWritesNothing(t *testing.T) {
	table := &fakeTable{pages: [][]map[string]types.AttributeValue{
		{
			scanItem("TENANT#t#PRODUCT#p1", "SALE#2025-01-15#s1", "2025-01-15", 0),
			scanItem("TENANT#t#PRODUCT#p2", "SALE#2025-02-01#s2", "2025-02-01", 0),
		},
	}}

	backfill := NewBackfill(table, BackfillConfig{TableName: "sales", DryRun: true}, nil, nil)
	result, err := backfill.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Updated)
	assert.Empty(t, table.updates)
}

func TestBackfillSkipsItemsWithoutSaleDate(t *testing.T) {
	table := &fakeTable{pages: [][]map[string]types.AttributeValue{
		{
			scanItem("TENANT#t#PRODUCT#p1", "SALE#2025-01-15#s1", "", 0),
			scanItem("TENANT#t#PRODUCT#p2", "SALE#2025-02-01#s2", "garbage", 0),
		},
	}}

	backfill := NewBackfill(table, BackfillConfig{TableName: "sales"}, nil, nil)
	result, err := backfill.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Zero(t, result.Updated)
	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, table.updates)
}

func TestBackfillTreatsLostRaceAsSkipped(t *testing.T) {
	table := &fakeTable{
		pages: [][]map[string]types.AttributeValue{
			{scanItem("TENANT#t#PRODUCT#p1", "SALE#2025-01-15#s1", "2025-01-15", 0)},
		},
		updateErr: &types.ConditionalCheckFailedException{},
	}

	backfill := NewBackfill(table, BackfillConfig{TableName: "sales"}, nil, nil)
	result, err := backfill.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Updated)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Failed)
}

func TestBackfillCountsUpdateFailures(t *testing.T) {
	table := &fakeTable{
		pages: [][]map[string]types.AttributeValue{
			{scanItem("TENANT#t#PRODUCT#p1", "SALE#2025-01-15#s1", "2025-01-15", 0)},
		},
		updateErr: fmt.Errorf("write throttled"),
	}

	backfill := NewBackfill(table, BackfillConfig{TableName: "sales"}, nil, nil)
	result, err := backfill.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Updated)
}

func TestBackfillUnreachableTable(t *testing.T) {
	table := &fakeTable{scanErr: fmt.Errorf("table does not exist")}

	backfill := NewBackfill(table, BackfillConfig{TableName: "missing"}, nil, nil)
	_, err := backfill.Run(context.Background())
	assert.Error(t, err)
}
