package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
	"github.com/chris/trade-sphere/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	buyer  = "0x1111111111111111111111111111111111111111"
	seller = "0x2222222222222222222222222222222222222222"
	vault  = "0x5555555555555555555555555555555555555555"
)

var testTables = Tables{
	Trades:   "trades",
	Tokens:   "tokens",
	Wallets:  "wallets",
	Ledger:   "ledger",
	Counters: "counters",
}

func newTrade() *models.Trade {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.Trade{
		Buyer:        buyer,
		Seller:       seller,
		Amount:       100,
		ShippingInfo: "Pier 3",
		Status:       models.CREATED,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func tradeItem(t *testing.T, trade *models.Trade) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(trade)
	require.NoError(t, err)
	return item
}

func counterItem(next string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name":    &types.AttributeValueMemberS{Value: tradeCounter},
		"next_id": &types.AttributeValueMemberN{Value: next},
	}
}

func canceledAt(index, total int) error {
	reasons := make([]types.CancellationReason, total)
	for i := range reasons {
		reasons[i].Code = aws.String("None")
	}
	reasons[index].Code = aws.String("ConditionalCheckFailed")
	return &types.TransactionCanceledException{CancellationReasons: reasons}
}

func TestCreateTrade(t *testing.T) {
	t.Run("Success First Trade", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			counter := in.TransactItems[0].Update
			put := in.TransactItems[1].Put
			return len(in.TransactItems) == 2 &&
				aws.ToString(counter.ConditionExpression) == "attribute_not_exists(next_id)" &&
				counter.ExpressionAttributeValues[":next"].(*types.AttributeValueMemberN).Value == "1" &&
				put.Item["id"].(*types.AttributeValueMemberN).Value == "0"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		store := New(mockClient, testTables)
		created, err := store.CreateTrade(context.Background(), newTrade())

		require.NoError(t, err)
		assert.Equal(t, uint64(0), created.Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Success Existing Counter", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: counterItem("5")}, nil)
		mockClient.On("TransactWriteItems", mock.Anything, mock.MatchedBy(func(in *dynamodb.TransactWriteItemsInput) bool {
			counter := in.TransactItems[0].Update
			return aws.ToString(counter.ConditionExpression) == "next_id = :current" &&
				counter.ExpressionAttributeValues[":current"].(*types.AttributeValueMemberN).Value == "5"
		})).Return(&dynamodb.TransactWriteItemsOutput{}, nil)

		store := New(mockClient, testTables)
		created, err := store.CreateTrade(context.Background(), newTrade())

		require.NoError(t, err)
		assert.Equal(t, uint64(5), created.Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Retries Counter Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: counterItem("5")}, nil).Once()
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: counterItem("6")}, nil).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, canceledAt(0, 2)).Once()
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(&dynamodb.TransactWriteItemsOutput{}, nil).Once()

		store := New(mockClient, testTables)
		created, err := store.CreateTrade(context.Background(), newTrade())

		require.NoError(t, err)
		assert.Equal(t, uint64(6), created.Id)
		mockClient.AssertExpectations(t)
	})

	t.Run("Gives Up After Repeated Conflicts", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: counterItem("5")}, nil)
		mockClient.On("TransactWriteItems", mock.Anything, mock.Anything).Return(nil, canceledAt(0, 2))

		store := New(mockClient, testTables)
		_, err := store.CreateTrade(context.Background(), newTrade())

		assert.ErrorIs(t, err, storage.ErrCounterConflict)
		mockClient.AssertNumberOfCalls(t, "TransactWriteItems", maxCounterAttempts)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some storage error"))

		store := New(mockClient, testTables)
		_, err := store.CreateTrade(context.Background(), newTrade())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read trade counter")
		mockClient.AssertExpectations(t)
	})
}

func TestGetTrade(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		trade := newTrade()
		trade.Id = 3
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: tradeItem(t, trade)}, nil)

		store := New(mockClient, testTables)
		got, err := store.GetTrade(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, trade, got)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		store := New(mockClient, testTables)
		_, err := store.GetTrade(context.Background(), 3)

		assert.ErrorIs(t, err, storage.ErrTradeNotFound)
		mockClient.AssertExpectations(t)
	})
}

func TestListTradesByParty(t *testing.T) {
	first := newTrade()
	first.Id = 2
	second := newTrade()
	second.Id = 1
	second.Buyer, second.Seller = seller, buyer

	mockClient := new(mocks.DynamoDBAPI)
	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == buyerIndex
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{tradeItem(t, first)}}, nil)
	mockClient.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return aws.ToString(in.IndexName) == sellerIndex
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{tradeItem(t, second)}}, nil)

	store := New(mockClient, testTables)
	trades, err := store.ListTradesByParty(context.Background(), buyer)

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].Id)
	assert.Equal(t, uint64(2), trades[1].Id)
	mockClient.AssertExpectations(t)
}

func TestListTrades(t *testing.T) {
	first := newTrade()
	second := newTrade()
	second.Id = 1

	mockClient := new(mocks.DynamoDBAPI)
	lastKey := map[string]types.AttributeValue{"id": &types.AttributeValueMemberN{Value: "1"}}
	mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey == nil
	})).Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{tradeItem(t, second)}, LastEvaluatedKey: lastKey}, nil).Once()
	mockClient.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return in.ExclusiveStartKey != nil
	})).Return(&dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{tradeItem(t, first)}}, nil).Once()

	store := New(mockClient, testTables)
	trades, err := store.ListTrades(context.Background())

	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(0), trades[0].Id)
	mockClient.AssertExpectations(t)
}

func TestAppendStatusLabel(t *testing.T) {
	label := models.StatusLabel{Label: "Shipped", Author: seller, At: time.Now().UTC()}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
			list, ok := in.ExpressionAttributeValues[":label"].(*types.AttributeValueMemberL)
			return ok && len(list.Value) == 1
		})).Return(&dynamodb.UpdateItemOutput{}, nil)

		store := New(mockClient, testTables)
		err := store.AppendStatusLabel(context.Background(), 4, label)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := New(mockClient, testTables)
		err := store.AppendStatusLabel(context.Background(), 4, label)

		assert.ErrorIs(t, err, storage.ErrTradeNotFound)
		mockClient.AssertExpectations(t)
	})
}
