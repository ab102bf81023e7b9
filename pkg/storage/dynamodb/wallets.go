package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
	"github.com/google/uuid"
)

// GetWallet retrieves the balance of principal in asset. A wallet that was
// never credited reads as zero.
func (s *Store) GetWallet(ctx context.Context, principal, asset string) (*models.Wallet, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Wallets),
		Key:            walletKey(principal, asset),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return &models.Wallet{WalletId: models.WalletID(principal, asset), Principal: principal, Asset: asset}, nil
	}

	var wallet models.Wallet
	if err := attributevalue.UnmarshalMap(result.Item, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &wallet, nil
}

// Deposit credits the wallet and records the ledger entry in one transaction.
func (s *Store) Deposit(ctx context.Context, principal, asset string, amount uint64) (*models.Wallet, error) {
	now := time.Now().UTC()
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp for deposit: %w", err)
	}

	entry := models.LedgerEntry{
		EntryID:     uuid.New().String(),
		AccountID:   principal,
		Asset:       asset,
		Credit:      amount,
		Description: fmt.Sprintf("Deposit of %d %s", amount, asset),
		Timestamp:   now,
		GSI1PK:      models.LedgerPartition,
	}
	entryAV, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deposit entry: %w", err)
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			s.creditItem(principal, asset, amount, nowAV),
			{
				Put: &types.Put{
					TableName:           aws.String(s.Tables.Ledger),
					Item:                entryAV,
					ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
				},
			},
		},
	}
	if _, err := s.Client.TransactWriteItems(ctx, input); err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) && failedAt(canceled, 0) {
			return nil, fmt.Errorf("crediting %s: %w", principal, storage.ErrBalanceOverflow)
		}
		return nil, fmt.Errorf("failed to execute deposit transaction: %w", err)
	}

	return s.GetWallet(ctx, principal, asset)
}

// ListWallets retrieves every wallet of principal through the principal index.
func (s *Store) ListWallets(ctx context.Context, principal string) ([]models.Wallet, error) {
	var wallets []models.Wallet
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Wallets),
		IndexName:              aws.String(principalIndex),
		KeyConditionExpression: aws.String("principal = :principal"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":principal": &types.AttributeValueMemberS{Value: principal},
		},
	}
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query wallets by principal: %w", err)
		}
		var batch []models.Wallet
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wallets: %w", err)
		}
		wallets = append(wallets, batch...)
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	sort.Slice(wallets, func(i, j int) bool { return wallets[i].Asset < wallets[j].Asset })
	return wallets, nil
}

func walletKey(principal, asset string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"wallet_id": &types.AttributeValueMemberS{Value: models.WalletID(principal, asset)},
	}
}
