package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
)

// maxCounterAttempts bounds the retries when another writer advances the
// trade ID counter first.
const maxCounterAttempts = 3

// CreateTrade reads the trade counter and, in one transaction, advances it and
// writes the trade under the ID it held.
func (s *Store) CreateTrade(ctx context.Context, trade *models.Trade) (*models.Trade, error) {
	for attempt := 0; attempt < maxCounterAttempts; attempt++ {
		next, exists, err := s.readCounter(ctx)
		if err != nil {
			return nil, err
		}

		stored := trade.Clone()
		stored.Id = next
		err = s.putTrade(ctx, stored, exists)
		if err == nil {
			return stored, nil
		}
		if !errors.Is(err, storage.ErrCounterConflict) {
			return nil, err
		}
	}
	return nil, storage.ErrCounterConflict
}

// readCounter returns the next trade ID and whether the counter item exists.
func (s *Store) readCounter(ctx context.Context) (uint64, bool, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Counters),
		Key:            counterKey(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to read trade counter: %w", err)
	}
	if result.Item == nil {
		return 0, false, nil
	}

	var counter struct {
		NextID uint64 `dynamodbav:"next_id"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &counter); err != nil {
		return 0, false, fmt.Errorf("failed to unmarshal trade counter: %w", err)
	}
	return counter.NextID, true, nil
}

func (s *Store) putTrade(ctx context.Context, trade *models.Trade, counterExists bool) error {
	tradeAV, err := attributevalue.MarshalMap(trade)
	if err != nil {
		return fmt.Errorf("failed to marshal trade: %w", err)
	}

	counterCondition := "attribute_not_exists(next_id)"
	values := map[string]types.AttributeValue{
		":next": number(trade.Id + 1),
	}
	if counterExists {
		counterCondition = "next_id = :current"
		values[":current"] = number(trade.Id)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				// Operation 1: Advance the counter past the ID we are taking.
				Update: &types.Update{
					TableName:                 aws.String(s.Tables.Counters),
					Key:                       counterKey(),
					UpdateExpression:          aws.String("SET next_id = :next"),
					ConditionExpression:       aws.String(counterCondition),
					ExpressionAttributeValues: values,
				},
			},
			{
				// Operation 2: Create the trade record.
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Trades),
					Item:                tradeAV,
					ConditionExpression: aws.String("attribute_not_exists(id)"),
				},
			},
		},
	}

	_, err = s.Client.TransactWriteItems(ctx, input)
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && failedAt(canceled, 0) {
			return storage.ErrCounterConflict
		}
		return fmt.Errorf("failed to execute create trade transaction: %w", err)
	}
	return nil
}

// GetTrade retrieves a trade from DynamoDB by its ID.
func (s *Store) GetTrade(ctx context.Context, id uint64) (*models.Trade, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Trades),
		Key:            tradeKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get trade from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("trade with ID %d: %w", id, storage.ErrTradeNotFound)
	}

	var trade models.Trade
	if err := attributevalue.UnmarshalMap(result.Item, &trade); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade: %w", err)
	}
	return &trade, nil
}

// ListTradesByParty merges the buyer and seller index queries, ordered by ID.
func (s *Store) ListTradesByParty(ctx context.Context, principal string) ([]models.Trade, error) {
	seen := make(map[uint64]bool)
	var trades []models.Trade
	for _, index := range []struct{ name, attr string }{
		{buyerIndex, "buyer"},
		{sellerIndex, "seller"},
	} {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.Tables.Trades),
			IndexName:              aws.String(index.name),
			KeyConditionExpression: aws.String("#party = :principal"),
			ExpressionAttributeNames: map[string]string{
				"#party": index.attr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":principal": &types.AttributeValueMemberS{Value: principal},
			},
		}
		for {
			result, err := s.Client.Query(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("failed to query trades by %s: %w", index.attr, err)
			}
			var batch []models.Trade
			if err := attributevalue.UnmarshalListOfMaps(result.Items, &batch); err != nil {
				return nil, fmt.Errorf("failed to unmarshal trades: %w", err)
			}
			for _, t := range batch {
				if !seen[t.Id] {
					seen[t.Id] = true
					trades = append(trades, t)
				}
			}
			if len(result.LastEvaluatedKey) == 0 {
				break
			}
			input.ExclusiveStartKey = result.LastEvaluatedKey
		}
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].Id < trades[j].Id })
	return trades, nil
}

// ListTrades scans the whole trades table, ordered by ID.
func (s *Store) ListTrades(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	input := &dynamodb.ScanInput{
		TableName:      aws.String(s.Tables.Trades),
		ConsistentRead: aws.Bool(true),
	}
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trades table: %w", err)
		}
		var batch []models.Trade
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trades: %w", err)
		}
		trades = append(trades, batch...)
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	sort.Slice(trades, func(i, j int) bool { return trades[i].Id < trades[j].Id })
	return trades, nil
}

// AppendStatusLabel appends label to the trade's label list.
func (s *Store) AppendStatusLabel(ctx context.Context, id uint64, label models.StatusLabel) error {
	labelAV, err := attributevalue.Marshal([]models.StatusLabel{label})
	if err != nil {
		return fmt.Errorf("failed to marshal status label: %w", err)
	}
	atAV, err := attributevalue.Marshal(label.At)
	if err != nil {
		return fmt.Errorf("failed to marshal label timestamp: %w", err)
	}

	_, err = s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.Tables.Trades),
		Key:                 tradeKey(id),
		UpdateExpression:    aws.String("SET labels = list_append(if_not_exists(labels, :empty), :label), updated_at = :at"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":label": labelAV,
			":at":    atAV,
		},
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return fmt.Errorf("trade with ID %d: %w", id, storage.ErrTradeNotFound)
		}
		return fmt.Errorf("failed to append status label: %w", err)
	}
	return nil
}

func tradeKey(id uint64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": number(id),
	}
}

func counterKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name": &types.AttributeValueMemberS{Value: tradeCounter},
	}
}

func number(n uint64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatUint(n, 10)}
}

// failedAt reports whether the transaction was cancelled by the condition of
// the item at index.
func failedAt(canceled *types.TransactionCanceledException, index int) bool {
	if index >= len(canceled.CancellationReasons) {
		return false
	}
	return aws.ToString(canceled.CancellationReasons[index].Code) == "ConditionalCheckFailed"
}
