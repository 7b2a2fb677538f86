// Package ddb implements the sales repository on AWS DynamoDB.
// This is the only layer that should have knowledge of DynamoDB specifics.
package ddb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/repository"
	"resale-pricing-backend/internal/sharding"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the subset of the DynamoDB API the repository uses.
// *dynamodb.Client satisfies it; tests substitute a fake.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

const (
	saleDateLayout = "2006-01-02"

	salePrefix      = "SALE#"
	embeddingPrefix = "EMB#"

	// defaultEmbeddingType labels the embedding family in the
	// brand/embedding index key until more than one model is in use.
	defaultEmbeddingType = "v1"
)

// ddbSale represents the structure of a sale item in DynamoDB.
type ddbSale struct {
	PK          string    `dynamodbav:"PK"`
	SK          string    `dynamodbav:"SK"`
	GSI1PK      string    `dynamodbav:"GSI1PK"`
	GSI1SK      string    `dynamodbav:"GSI1SK"`
	GSI2PK      string    `dynamodbav:"GSI2PK,omitempty"`
	GSI2SK      string    `dynamodbav:"GSI2SK,omitempty"`
	Tenant      string    `dynamodbav:"Tenant"`
	ProductID   string    `dynamodbav:"ProductID"`
	SaleID      string    `dynamodbav:"SaleID"`
	Category    string    `dynamodbav:"Category"`
	Brand       string    `dynamodbav:"Brand,omitempty"`
	Condition   string    `dynamodbav:"Condition,omitempty"`
	SoldPrice   float64   `dynamodbav:"SoldPrice"`
	SaleDate    string    `dynamodbav:"SaleDate"`
	Season      string    `dynamodbav:"Season"`
	DaysToSell  int       `dynamodbav:"DaysToSell,omitempty"`
	ImageKey    string    `dynamodbav:"ImageKey,omitempty"`
	Embedding   []float64 `dynamodbav:"Embedding,omitempty"`
	Description string    `dynamodbav:"Description,omitempty"`
	Source      string    `dynamodbav:"Source,omitempty"`
	TTL         int64     `dynamodbav:"ttl,omitempty"`
}

// buildPK constructs the tenant-scoped product partition key.
func buildPK(tenant, productID string) string {
	return fmt.Sprintf("TENANT#%s#PRODUCT#%s", tenant, productID)
}

// buildSK constructs the chronological sale sort key.
func buildSK(saleDate time.Time, saleID string) string {
	return salePrefix + saleDate.Format(saleDateLayout) + "#" + saleID
}

// buildEmbeddingSK constructs the sort key of the embedding projection item.
func buildEmbeddingSK(saleDate time.Time, saleID string) string {
	return embeddingPrefix + saleDate.Format(saleDateLayout) + "#" + saleID
}

// parseKey recovers a SaleKey from stored PK/SK strings. Used to report
// which items of a batch permanently failed.
func parseKey(pk, sk string) (repository.SaleKey, error) {
	var key repository.SaleKey

	pkParts := strings.Split(pk, "#")
	if len(pkParts) != 4 || pkParts[0] != "TENANT" || pkParts[2] != "PRODUCT" {
		return key, fmt.Errorf("malformed partition key %q", pk)
	}

	sk = strings.TrimPrefix(sk, salePrefix)
	sk = strings.TrimPrefix(sk, embeddingPrefix)
	skParts := strings.SplitN(sk, "#", 2)
	if len(skParts) != 2 {
		return key, fmt.Errorf("malformed sort key")
	}
	saleDate, err := time.Parse(saleDateLayout, skParts[0])
	if err != nil {
		return key, fmt.Errorf("malformed sale date in sort key: %w", err)
	}

	key.Tenant = pkParts[1]
	key.ProductID = pkParts[3]
	key.SaleDate = saleDate
	key.SaleID = skParts[1]
	return key, nil
}

// toItem converts a domain record to its main DynamoDB item.
func toItem(r *domain.SaleRecord) (map[string]types.AttributeValue, error) {
	season := r.Season
	if season == "" {
		season = domain.SeasonOf(r.SaleDate)
	}

	item := ddbSale{
		PK:          buildPK(r.Tenant, r.ProductID),
		SK:          buildSK(r.SaleDate, r.SaleID),
		GSI1PK:      sharding.CategoryIndexKey(r.Tenant, r.Category, season, r.SaleID),
		GSI1SK:      buildSK(r.SaleDate, r.SaleID),
		Tenant:      r.Tenant,
		ProductID:   r.ProductID,
		SaleID:      r.SaleID,
		Category:    r.Category,
		Brand:       r.Brand,
		Condition:   r.Condition,
		SoldPrice:   r.SoldPrice,
		SaleDate:    r.SaleDate.Format(saleDateLayout),
		Season:      season,
		DaysToSell:  r.DaysToSell,
		ImageKey:    r.ImageKey,
		Embedding:   r.Embedding,
		Description: r.Description,
		Source:      r.Source,
		TTL:         r.TTL,
	}

	// The brand access path rides on the main item; the embedding access
	// path gets its own projection item (see toEmbeddingItem).
	if r.Brand != "" {
		item.GSI2PK = sharding.EmbeddingIndexKey(r.Tenant, domain.IndexTypeBrand, r.Brand, r.ProductID)
		item.GSI2SK = buildSK(r.SaleDate, r.SaleID)
	}

	return attributevalue.MarshalMap(item)
}

// toEmbeddingItem converts a record carrying an embedding to the projection
// item that serves embedding-retrieval lookups. Written once at ingestion.
func toEmbeddingItem(r *domain.SaleRecord) (map[string]types.AttributeValue, error) {
	season := r.Season
	if season == "" {
		season = domain.SeasonOf(r.SaleDate)
	}

	item := ddbSale{
		PK:        buildPK(r.Tenant, r.ProductID),
		SK:        buildEmbeddingSK(r.SaleDate, r.SaleID),
		GSI2PK:    sharding.EmbeddingIndexKey(r.Tenant, domain.IndexTypeEmbedding, defaultEmbeddingType, r.ProductID),
		GSI2SK:    buildSK(r.SaleDate, r.SaleID),
		Tenant:    r.Tenant,
		ProductID: r.ProductID,
		SaleID:    r.SaleID,
		Category:  r.Category,
		Brand:     r.Brand,
		SoldPrice: r.SoldPrice,
		SaleDate:  r.SaleDate.Format(saleDateLayout),
		Season:    season,
		Embedding: r.Embedding,
		TTL:       r.TTL,
	}

	return attributevalue.MarshalMap(item)
}

// fromItem converts a DynamoDB item back to a domain record.
func fromItem(item map[string]types.AttributeValue) (*domain.SaleRecord, error) {
	var stored ddbSale
	if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sale item: %w", err)
	}

	saleDate, err := time.Parse(saleDateLayout, stored.SaleDate)
	if err != nil {
		return nil, fmt.Errorf("malformed sale date %q: %w", stored.SaleDate, err)
	}

	return &domain.SaleRecord{
		Tenant:      stored.Tenant,
		ProductID:   stored.ProductID,
		SaleID:      stored.SaleID,
		Category:    stored.Category,
		Brand:       stored.Brand,
		Condition:   stored.Condition,
		SoldPrice:   stored.SoldPrice,
		SaleDate:    saleDate,
		Season:      stored.Season,
		DaysToSell:  stored.DaysToSell,
		ImageKey:    stored.ImageKey,
		Embedding:   stored.Embedding,
		Description: stored.Description,
		Source:      stored.Source,
		TTL:         stored.TTL,
	}, nil
}
