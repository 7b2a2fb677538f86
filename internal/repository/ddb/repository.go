package ddb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"resale-pricing-backend/internal/domain"
	"resale-pricing-backend/internal/repository"
	"resale-pricing-backend/internal/sharding"
	"resale-pricing-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Config holds the table layout and tuning knobs of the repository.
type Config struct {
	TableName          string
	CategoryIndexName  string
	EmbeddingIndexName string
	RetentionYears     int
	// FanOutTimeout bounds cross-shard queries; sub-queries still running
	// when it expires are dropped and partial results are returned.
	FanOutTimeout time.Duration
	Retry         repository.RetryConfig
}

// WithDefaults fills unset fields with production defaults.
func (c Config) WithDefaults() Config {
	if c.CategoryIndexName == "" {
		c.CategoryIndexName = "CategorySeasonIndex"
	}
	if c.EmbeddingIndexName == "" {
		c.EmbeddingIndexName = "BrandEmbeddingIndex"
	}
	if c.RetentionYears <= 0 {
		c.RetentionYears = domain.DefaultRetentionYears
	}
	if c.FanOutTimeout <= 0 {
		c.FanOutTimeout = 2 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = repository.DefaultRetryConfig()
	}
	return c
}

// SalesRepository is the DynamoDB implementation of repository.SalesRepository.
type SalesRepository struct {
	client  Client
	config  Config
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewSalesRepository creates a new DynamoDB-backed sales repository.
func NewSalesRepository(client Client, config Config, logger *zap.Logger, metrics *observability.Collector) *SalesRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesRepository{
		client:  client,
		config:  config.WithDefaults(),
		logger:  logger,
		metrics: metrics,
	}
}

var _ repository.SalesRepository = (*SalesRepository)(nil)

// PutSale idempotently upserts a sale record by primary key.
func (r *SalesRepository) PutSale(ctx context.Context, record *domain.SaleRecord) (err error) {
	defer r.observe("put_sale", time.Now(), &err)

	if verr := r.validateRecord(record); verr != nil {
		return verr
	}

	if record.Season == "" {
		record.Season = domain.SeasonOf(record.SaleDate)
	}
	if record.TTL == 0 {
		record.TTL = domain.ComputeTTL(record.SaleDate, r.config.RetentionYears)
	}

	item, err := toItem(record)
	if err != nil {
		return fmt.Errorf("failed to marshal sale item: %w", err)
	}

	// Records with an embedding also get their projection item, written in
	// the same transaction so the two access paths never disagree on
	// existence.
	if len(record.Embedding) > 0 {
		embItem, err := toEmbeddingItem(record)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding item: %w", err)
		}
		return r.withRetry(ctx, "put_sale", func() error {
			_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
				TransactItems: []types.TransactWriteItem{
					{Put: &types.Put{TableName: aws.String(r.config.TableName), Item: item}},
					{Put: &types.Put{TableName: aws.String(r.config.TableName), Item: embItem}},
				},
			})
			return err
		})
	}

	return r.withRetry(ctx, "put_sale", func() error {
		_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.config.TableName),
			Item:      item,
		})
		return err
	})
}

// GetSale performs a consistent point lookup by primary key.
func (r *SalesRepository) GetSale(ctx context.Context, key repository.SaleKey) (record *domain.SaleRecord, err error) {
	defer r.observe("get_sale", time.Now(), &err)

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.config.TableName),
		ConsistentRead: aws.Bool(true),
		Key:            primaryKey(key),
	})
	if err != nil {
		return nil, fmt.Errorf("DynamoDB GetItem failed: %w", err)
	}
	if result.Item == nil {
		return nil, repository.NewNotFoundForTenant("sale", key.SaleID, key.Tenant)
	}

	return fromItem(result.Item)
}

// QueryCategorySeason fans out across every category shard and merges the
// date-filtered results in chronological order.
func (r *SalesRepository) QueryCategorySeason(ctx context.Context, tenant, category, season string, dateRange repository.DateRange, page repository.Pagination) (result *repository.Page[*domain.SaleRecord], err error) {
	defer r.observe("query_category_season", time.Now(), &err)

	if verr := page.Validate(); verr != nil {
		return nil, verr
	}
	resume, err := repository.DecodeCursor(page.Cursor)
	if err != nil {
		return nil, repository.NewValidation("Cursor", err.Error())
	}

	keys := make([]string, sharding.CategoryShardCount)
	for shard := 0; shard < sharding.CategoryShardCount; shard++ {
		keys[shard] = sharding.CategoryIndexKeyForShard(tenant, category, season, shard)
	}

	limit := page.GetEffectiveLimit()
	shardResults, err := r.fanOut(ctx, r.config.CategoryIndexName, "GSI1PK", "GSI1SK", keys, dateRange, resume, limit)
	if err != nil {
		return nil, err
	}

	return mergePage(shardResults, resume, limit), nil
}

// QueryProductEmbeddings targets the single embedding shard derivable from
// the product ID.
func (r *SalesRepository) QueryProductEmbeddings(ctx context.Context, tenant, productID string) (records []*domain.SaleRecord, err error) {
	defer r.observe("query_product_embeddings", time.Now(), &err)

	partition := sharding.EmbeddingIndexKey(tenant, domain.IndexTypeEmbedding, defaultEmbeddingType, productID)

	keyCond := expression.Key("GSI2PK").Equal(expression.Value(partition))
	filter := expression.Name("ProductID").Equal(expression.Value(productID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	var lastKey map[string]types.AttributeValue
	for {
		out, qerr := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.config.TableName),
			IndexName:                 aws.String(r.config.EmbeddingIndexName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if qerr != nil {
			return nil, fmt.Errorf("DynamoDB Query failed: %w", qerr)
		}
		items = append(items, out.Items...)
		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	for _, item := range items {
		record, perr := fromItem(item)
		if perr != nil {
			r.logger.Warn("failed to parse embedding item", zap.Error(perr))
			continue
		}
		if len(record.Embedding) > 0 {
			records = append(records, record)
		}
	}
	return records, nil
}

// QueryBrandPricing fans out across every brand shard and merges.
func (r *SalesRepository) QueryBrandPricing(ctx context.Context, tenant, brand string) (records []*domain.SaleRecord, err error) {
	defer r.observe("query_brand_pricing", time.Now(), &err)

	keys := make([]string, sharding.EmbeddingShardCount)
	for shard := 0; shard < sharding.EmbeddingShardCount; shard++ {
		keys[shard] = sharding.EmbeddingIndexKeyForShard(tenant, domain.IndexTypeBrand, brand, shard)
	}

	shardResults, err := r.fanOut(ctx, r.config.EmbeddingIndexName, "GSI2PK", "GSI2SK", keys, repository.DateRange{}, nil, 0)
	if err != nil {
		return nil, err
	}

	merged := mergePage(shardResults, nil, 0)
	return merged.Items, nil
}

// UpdateSale conditionally patches an existing record. It never creates.
func (r *SalesRepository) UpdateSale(ctx context.Context, key repository.SaleKey, patch repository.SalePatch) (err error) {
	defer r.observe("update_sale", time.Now(), &err)

	update, ok := buildPatchUpdate(patch)
	if !ok {
		return repository.NewValidation("patch", "has no fields to update")
	}

	condition := expression.AttributeExists(expression.Name("PK")).
		And(expression.AttributeExists(expression.Name("SK")))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.config.TableName),
		Key:                       primaryKey(key),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return repository.NewConditionFailed("sale", key.SaleID, "record does not exist")
		}
		return fmt.Errorf("DynamoDB UpdateItem failed: %w", err)
	}
	return nil
}

// DeleteSale removes a record and its embedding projection item, if any.
// Deletes are idempotent; a missing item is not an error.
func (r *SalesRepository) DeleteSale(ctx context.Context, key repository.SaleKey) (err error) {
	defer r.observe("delete_sale", time.Now(), &err)

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.config.TableName),
		Key:       primaryKey(key),
	})
	if err != nil {
		return fmt.Errorf("DynamoDB DeleteItem failed: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.config.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: buildPK(key.Tenant, key.ProductID)},
			"SK": &types.AttributeValueMemberS{Value: buildEmbeddingSK(key.SaleDate, key.SaleID)},
		},
	})
	if err != nil {
		return fmt.Errorf("DynamoDB DeleteItem failed for embedding item: %w", err)
	}
	return nil
}

// BatchWriteSales writes records in chunks of 25, retrying unprocessed items
// with exponential backoff and jitter. Keys that never succeed come back in
// the result instead of failing the whole batch.
func (r *SalesRepository) BatchWriteSales(ctx context.Context, records []*domain.SaleRecord) (result *repository.BatchWriteResult, err error) {
	defer r.observe("batch_write_sales", time.Now(), &err)

	// Malformed input is rejected before any network call.
	for _, record := range records {
		if verr := r.validateRecord(record); verr != nil {
			return nil, verr
		}
	}

	var requests []types.WriteRequest
	for _, record := range records {
		if record.Season == "" {
			record.Season = domain.SeasonOf(record.SaleDate)
		}
		if record.TTL == 0 {
			record.TTL = domain.ComputeTTL(record.SaleDate, r.config.RetentionYears)
		}

		item, merr := toItem(record)
		if merr != nil {
			return nil, fmt.Errorf("failed to marshal sale item: %w", merr)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})

		if len(record.Embedding) > 0 {
			embItem, merr := toEmbeddingItem(record)
			if merr != nil {
				return nil, fmt.Errorf("failed to marshal embedding item: %w", merr)
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: embItem}})
		}
	}

	result = &repository.BatchWriteResult{}
	batchSize := 25 // DynamoDB BatchWriteItem limit

	// Written counts sale records, not write requests: a record with an
	// embedding contributes two requests but one sale. A failed projection
	// item marks its sale failed, and a sale whose both items fail is
	// reported once.
	failedKeys := make(map[repository.SaleKey]struct{})
	for start := 0; start < len(requests); start += batchSize {
		end := start + batchSize
		if end > len(requests) {
			end = len(requests)
		}

		failed := r.batchWriteChunk(ctx, requests[start:end])
		for _, req := range failed {
			if req.PutRequest == nil {
				continue
			}
			key, perr := writeRequestKey(req)
			if perr != nil {
				r.logger.Warn("could not identify failed batch item", zap.Error(perr))
				continue
			}
			if _, seen := failedKeys[key]; seen {
				continue
			}
			failedKeys[key] = struct{}{}
			result.FailedKeys = append(result.FailedKeys, key)
		}
	}
	result.Written = len(records) - len(result.FailedKeys)

	if len(result.FailedKeys) > 0 {
		r.logger.Warn("batch write completed with failures",
			zap.Int("written", result.Written),
			zap.Int("failed", len(result.FailedKeys)))
	}
	return result, nil
}

// batchWriteChunk writes one provider-sized chunk, retrying unprocessed
// items until the retry budget runs out. Returns requests that never landed.
func (r *SalesRepository) batchWriteChunk(ctx context.Context, requests []types.WriteRequest) []types.WriteRequest {
	pending := requests

	for attempt := 0; ; attempt++ {
		input := &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.config.TableName: pending,
			},
		}

		output, err := r.client.BatchWriteItem(ctx, input)
		if err != nil {
			if repository.IsRetryableError(err) && attempt < r.config.Retry.MaxAttempts-1 {
				if !r.backoff(ctx, attempt) {
					return pending
				}
				continue
			}
			r.logger.Error("batch write chunk failed", zap.Error(err), zap.Int("items", len(pending)))
			return pending
		}

		unprocessed := output.UnprocessedItems[r.config.TableName]
		if len(unprocessed) == 0 {
			return nil
		}

		if attempt >= r.config.Retry.MaxAttempts-1 {
			r.logger.Warn("max retries exceeded for batch write",
				zap.Int("unprocessed", len(unprocessed)))
			return unprocessed
		}

		if !r.backoff(ctx, attempt) {
			return unprocessed
		}
		pending = unprocessed
	}
}

// backoff sleeps with exponential backoff and jitter; false means the
// context expired while waiting.
func (r *SalesRepository) backoff(ctx context.Context, attempt int) bool {
	cfg := r.config.Retry
	delay := cfg.BaseDelay * time.Duration(1<<attempt)
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// shardResult carries one shard's slice of a fan-out query.
type shardResult struct {
	shard   int
	records []*domain.SaleRecord
	hasMore bool
	err     error
}

// fanOut issues one sub-query per shard key concurrently, skipping shards
// the cursor already marks exhausted. The fixed shard count bounds
// concurrency, and the fan-out timeout bounds total wait: shards that miss
// it contribute nothing rather than hanging the caller.
func (r *SalesRepository) fanOut(ctx context.Context, indexName, pkAttr, skAttr string, partitionKeys []string, dateRange repository.DateRange, resume map[int]string, perShardLimit int) ([]shardResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.FanOutTimeout)
	defer cancel()

	results := make(chan shardResult, len(partitionKeys))
	var wg sync.WaitGroup

	queried := 0
	for shard, partitionKey := range partitionKeys {
		if resume[shard] == repository.CursorShardDone {
			continue
		}
		queried++
		wg.Add(1)
		go func(shard int, partitionKey string) {
			defer wg.Done()
			res := r.queryShard(ctx, indexName, pkAttr, skAttr, partitionKey, dateRange, resume[shard], perShardLimit)
			res.shard = shard
			results <- res
		}(shard, partitionKey)
	}

	wg.Wait()
	close(results)

	var out []shardResult
	for res := range results {
		if res.err != nil {
			// Partial results beat a hard failure for analytics reads,
			// unless every shard failed.
			r.logger.Warn("shard query failed", zap.Int("shard", res.shard), zap.Error(res.err))
			continue
		}
		out = append(out, res)
	}

	if len(out) == 0 && queried > 0 {
		return nil, fmt.Errorf("all %d shard queries failed", queried)
	}
	return out, nil
}

// queryShard runs the bounded range query for one shard partition.
func (r *SalesRepository) queryShard(ctx context.Context, indexName, pkAttr, skAttr, partitionKey string, dateRange repository.DateRange, resumeAfter string, limit int) shardResult {
	keyCond := expression.Key(pkAttr).Equal(expression.Value(partitionKey))

	// Resumed pages stay bounded: the resume key only tightens the lower
	// bound, the range's upper bound always applies.
	lower := sortKeyLowerBound(dateRange)
	if resumeAfter > lower {
		lower = resumeAfter
	}
	keyCond = keyCond.And(expression.Key(skAttr).Between(
		expression.Value(lower),
		expression.Value(sortKeyUpperBound(dateRange)),
	))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return shardResult{err: fmt.Errorf("failed to build expression: %w", err)}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.config.TableName),
		IndexName:                 aws.String(indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if limit > 0 {
		// Fetch one past the limit so hasMore is known without a second
		// call. Between is inclusive, so a resumed page may spend one more
		// slot re-reading the resume row itself.
		fetch := limit + 1
		if resumeAfter != "" {
			fetch++
		}
		input.Limit = aws.Int32(int32(fetch))
	}

	out, err := r.client.Query(ctx, input)
	if err != nil {
		return shardResult{err: err}
	}

	res := shardResult{}
	for _, item := range out.Items {
		record, perr := fromItem(item)
		if perr != nil {
			r.logger.Warn("failed to parse sale item", zap.Error(perr))
			continue
		}
		sk := buildSK(record.SaleDate, record.SaleID)
		if resumeAfter != "" && sk <= resumeAfter {
			continue
		}
		if !dateRange.Contains(record.SaleDate) {
			continue
		}
		res.records = append(res.records, record)
	}
	if limit > 0 && len(res.records) > limit {
		res.records = res.records[:limit]
		res.hasMore = true
	}
	if out.LastEvaluatedKey != nil {
		res.hasMore = true
	}
	return res
}

// mergePage merges per-shard results chronologically and cuts to the page
// limit. The next cursor keeps a position for every shard: the last emitted
// sort key for shards that contributed to the page, the prior cursor
// position for shards whose rows were all cut by the page limit, and a done
// marker for shards read to the end. A shard never loses its place just
// because another shard filled the page.
func mergePage(shardResults []shardResult, resume map[int]string, limit int) *repository.Page[*domain.SaleRecord] {
	type tagged struct {
		record *domain.SaleRecord
		shard  int
	}

	var all []tagged
	for _, res := range shardResults {
		for _, record := range res.records {
			all = append(all, tagged{record: record, shard: res.shard})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].record.SaleDate.Equal(all[j].record.SaleDate) {
			return all[i].record.SaleDate.Before(all[j].record.SaleDate)
		}
		return all[i].record.SaleID < all[j].record.SaleID
	})

	page := &repository.Page[*domain.SaleRecord]{}
	emitted := all
	if limit > 0 && len(all) > limit {
		emitted = all[:limit]
		page.HasMore = true
	}
	for _, t := range emitted {
		page.Items = append(page.Items, t.record)
	}

	positions := make(map[int]string, len(resume))
	for shard, pos := range resume {
		positions[shard] = pos
	}
	emittedPerShard := make(map[int]int)
	for _, t := range emitted {
		positions[t.shard] = buildSK(t.record.SaleDate, t.record.SaleID)
		emittedPerShard[t.shard]++
	}

	for _, res := range shardResults {
		if res.hasMore {
			page.HasMore = true
			continue
		}
		if emittedPerShard[res.shard] == len(res.records) {
			positions[res.shard] = repository.CursorShardDone
		}
	}

	if page.HasMore {
		page.NextCursor = repository.EncodeCursor(positions)
	}
	return page
}

// sortKeyLowerBound converts the open/closed lower date bound to a sort key.
func sortKeyLowerBound(d repository.DateRange) string {
	if d.From.IsZero() {
		return salePrefix
	}
	return salePrefix + d.From.Format(saleDateLayout)
}

// sortKeyUpperBound converts the upper date bound to an inclusive sort key.
func sortKeyUpperBound(d repository.DateRange) string {
	if d.To.IsZero() {
		return salePrefix + "9999-12-31#￿"
	}
	return salePrefix + d.To.Format(saleDateLayout) + "#￿"
}

// primaryKey builds the table key attribute map for a sale key.
func primaryKey(key repository.SaleKey) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: buildPK(key.Tenant, key.ProductID)},
		"SK": &types.AttributeValueMemberS{Value: buildSK(key.SaleDate, key.SaleID)},
	}
}

// writeRequestKey recovers the sale key of a failed batch write request.
func writeRequestKey(req types.WriteRequest) (repository.SaleKey, error) {
	pkAttr, ok := req.PutRequest.Item["PK"].(*types.AttributeValueMemberS)
	if !ok {
		return repository.SaleKey{}, fmt.Errorf("missing PK on write request")
	}
	skAttr, ok := req.PutRequest.Item["SK"].(*types.AttributeValueMemberS)
	if !ok {
		return repository.SaleKey{}, fmt.Errorf("missing SK on write request")
	}
	return parseKey(pkAttr.Value, skAttr.Value)
}

// buildPatchUpdate turns a patch into an update expression. The second
// return is false when the patch is empty.
func buildPatchUpdate(patch repository.SalePatch) (expression.UpdateBuilder, bool) {
	var update expression.UpdateBuilder
	set := false

	if patch.SoldPrice != nil {
		update = update.Set(expression.Name("SoldPrice"), expression.Value(*patch.SoldPrice))
		set = true
	}
	if patch.Condition != nil {
		update = update.Set(expression.Name("Condition"), expression.Value(*patch.Condition))
		set = true
	}
	if patch.DaysToSell != nil {
		update = update.Set(expression.Name("DaysToSell"), expression.Value(*patch.DaysToSell))
		set = true
	}
	if patch.Description != nil {
		update = update.Set(expression.Name("Description"), expression.Value(*patch.Description))
		set = true
	}
	if patch.ImageKey != nil {
		update = update.Set(expression.Name("ImageKey"), expression.Value(*patch.ImageKey))
		set = true
	}
	if patch.Embedding != nil {
		update = update.Set(expression.Name("Embedding"), expression.Value(patch.Embedding))
		set = true
	}
	if patch.TTL != nil {
		update = update.Set(expression.Name("ttl"), expression.Value(*patch.TTL))
		set = true
	}
	return update, set
}

// validateRecord rejects malformed records before any network call.
func (r *SalesRepository) validateRecord(record *domain.SaleRecord) error {
	if record == nil {
		return repository.NewValidation("record", "is nil")
	}
	if record.Tenant == "" {
		return repository.NewValidation("Tenant", "is required")
	}
	if record.ProductID == "" {
		return repository.NewValidation("ProductID", "is required")
	}
	if record.SaleID == "" {
		return repository.NewValidation("SaleID", "is required")
	}
	if record.SaleDate.IsZero() {
		return repository.NewValidation("SaleDate", "is required")
	}
	return nil
}

// withRetry wraps a store call in the bounded backoff policy, converting
// exhausted throttling into a typed error.
func (r *SalesRepository) withRetry(ctx context.Context, operation string, fn func() error) error {
	err := repository.RetryWithBackoff(ctx, r.config.Retry, fn)
	if err == nil {
		return nil
	}
	if repository.IsRetryableError(errors.Unwrap(err)) || repository.IsRetryableError(err) {
		return repository.ErrThrottled{Operation: operation, Attempts: r.config.Retry.MaxAttempts, Err: err}
	}
	return err
}

// observe records metrics for one repository call when a collector is wired.
func (r *SalesRepository) observe(operation string, start time.Time, err *error) {
	if r.metrics == nil {
		return
	}
	r.metrics.ObserveDBOperation(operation, start, *err)
}
