package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/trade-sphere/pkg/models"
	"github.com/chris/trade-sphere/pkg/storage"
	"github.com/google/uuid"
)

// ApplyTransition moves the trade from t.From to t.To and, when t carries a
// transfer, debits and credits the two wallets and writes both ledger entries,
// all in one TransactWriteItems call.
func (s *Store) ApplyTransition(ctx context.Context, t storage.Transition) (*models.Trade, error) {
	nowAV, err := attributevalue.Marshal(t.At)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp for transition: %w", err)
	}

	items := []types.TransactWriteItem{
		{
			// Operation 1: Move the trade status, guarded by the expected status.
			Update: &types.Update{
				TableName:           aws.String(s.Tables.Trades),
				Key:                 tradeKey(t.TradeID),
				UpdateExpression:    aws.String("SET #status = :to, escrowed_amount = :escrowed, updated_at = :now"),
				ConditionExpression: aws.String("attribute_exists(id) AND #status = :from"),
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":to":       &types.AttributeValueMemberS{Value: string(t.To)},
					":from":     &types.AttributeValueMemberS{Value: string(t.From)},
					":escrowed": number(t.Escrowed),
					":now":      nowAV,
				},
			},
		},
	}

	if tr := t.Transfer; tr != nil && tr.Amount > 0 {
		transferItems, err := s.transferItems(tr, &t.TradeID, t.At)
		if err != nil {
			return nil, err
		}
		items = append(items, transferItems...)
	}

	_, err = s.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			switch {
			case failedAt(canceled, 0):
				return nil, s.transitionConflict(ctx, t)
			case failedAt(canceled, 1):
				return nil, storage.ErrInsufficientFunds
			case t.Transfer != nil && failedAt(canceled, 2):
				return nil, fmt.Errorf("crediting %s: %w", t.Transfer.To, storage.ErrBalanceOverflow)
			}
		}
		return nil, fmt.Errorf("failed to execute transition transaction: %w", err)
	}

	return s.GetTrade(ctx, t.TradeID)
}

// transitionConflict tells a missing trade apart from one in another status.
func (s *Store) transitionConflict(ctx context.Context, t storage.Transition) error {
	current, err := s.GetTrade(ctx, t.TradeID)
	if err != nil {
		return err
	}
	return fmt.Errorf("trade %d is %s, expected %s: %w", t.TradeID, current.Status, t.From, storage.ErrTransitionConflict)
}

// transferItems builds the debit, credit and ledger writes of a transfer. The
// debit is always the first item so a failed balance check is reported at
// index 1 of the transaction.
func (s *Store) transferItems(tr *storage.Transfer, tradeID *uint64, at time.Time) ([]types.TransactWriteItem, error) {
	nowAV, err := attributevalue.Marshal(at)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp for transfer: %w", err)
	}

	id := *tradeID
	debitEntry := models.LedgerEntry{
		EntryID:     uuid.New().String(),
		TradeID:     &id,
		AccountID:   tr.From,
		Asset:       tr.Asset,
		Debit:       tr.Amount,
		Description: tr.Description,
		Timestamp:   at,
		GSI1PK:      models.LedgerPartition,
	}
	creditEntry := models.LedgerEntry{
		EntryID:     uuid.New().String(),
		TradeID:     &id,
		AccountID:   tr.To,
		Asset:       tr.Asset,
		Credit:      tr.Amount,
		Description: tr.Description,
		Timestamp:   at,
		GSI1PK:      models.LedgerPartition,
	}
	debitAV, err := attributevalue.MarshalMap(debitEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal debit entry: %w", err)
	}
	creditAV, err := attributevalue.MarshalMap(creditEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credit entry: %w", err)
	}

	return []types.TransactWriteItem{
		{
			// Operation 2: Debit the source wallet.
			Update: &types.Update{
				TableName:           aws.String(s.Tables.Wallets),
				Key:                 walletKey(tr.From, tr.Asset),
				UpdateExpression:    aws.String("SET balance = balance - :amount, version = version + :inc, updated_at = :now"),
				ConditionExpression: aws.String("balance >= :amount"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":amount": number(tr.Amount),
					":inc":    number(1),
					":now":    nowAV,
				},
			},
		},
		s.creditItem(tr.To, tr.Asset, tr.Amount, nowAV),
		{
			// Operation 4: Create debit ledger entry.
			Put: &types.Put{
				TableName:           aws.String(s.Tables.Ledger),
				Item:                debitAV,
				ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
			},
		},
		{
			// Operation 5: Create credit ledger entry.
			Put: &types.Put{
				TableName:           aws.String(s.Tables.Ledger),
				Item:                creditAV,
				ConditionExpression: aws.String("attribute_not_exists(entry_id)"),
			},
		},
	}, nil
}

// creditItem adds amount to a wallet, creating it on first use. The write fails
// its condition when the new balance would not fit in a uint64.
func (s *Store) creditItem(principal, asset string, amount uint64, nowAV types.AttributeValue) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:           aws.String(s.Tables.Wallets),
			Key:                 walletKey(principal, asset),
			UpdateExpression:    aws.String("SET principal = :principal, asset = :asset, updated_at = :now ADD balance :amount, version :inc"),
			ConditionExpression: aws.String("attribute_not_exists(balance) OR balance <= :max"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":principal": &types.AttributeValueMemberS{Value: principal},
				":asset":     &types.AttributeValueMemberS{Value: asset},
				":amount":    number(amount),
				":max":       number(math.MaxUint64 - amount),
				":inc":       number(1),
				":now":       nowAV,
			},
		},
	}
}
