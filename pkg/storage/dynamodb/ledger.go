package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/trade-sphere/pkg/models"
)

// ListLedgerEntries returns up to limit entries, newest first.
func (s *Store) ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.Tables.Ledger),
		IndexName:              aws.String(ledgerGSI),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: models.LedgerPartition},
		},
		ScanIndexForward: aws.Bool(false), // Sort by timestamp in descending order
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	result, err := s.Client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query for ledger entries: %w", err)
	}

	var entries []models.LedgerEntry
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
	}
	return entries, nil
}
