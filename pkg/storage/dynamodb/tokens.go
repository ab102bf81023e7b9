package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/chris/trade-sphere/pkg/models"
)

// PutSupportedToken stores token unless it is already registered, keeping the
// original registration.
func (s *Store) PutSupportedToken(ctx context.Context, token models.SupportedToken) error {
	item, err := attributevalue.MarshalMap(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.Tables.Tokens),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#token)"),
		ExpressionAttributeNames: map[string]string{
			"#token": "token",
		},
	})
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return nil
		}
		return fmt.Errorf("failed to put token in DynamoDB: %w", err)
	}
	return nil
}

// DeleteSupportedToken removes token. Removing an absent token is a no-op.
func (s *Store) DeleteSupportedToken(ctx context.Context, token string) error {
	_, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.Tables.Tokens),
		Key:       tokenKey(token),
	})
	if err != nil {
		return fmt.Errorf("failed to delete token from DynamoDB: %w", err)
	}
	return nil
}

func (s *Store) IsSupportedToken(ctx context.Context, token string) (bool, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.Tables.Tokens),
		Key:            tokenKey(token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("failed to get token from DynamoDB: %w", err)
	}
	return result.Item != nil, nil
}

func (s *Store) ListSupportedTokens(ctx context.Context) ([]models.SupportedToken, error) {
	var tokens []models.SupportedToken
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.Tables.Tokens),
	}
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tokens table: %w", err)
		}
		var batch []models.SupportedToken
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tokens: %w", err)
		}
		tokens = append(tokens, batch...)
		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Token < tokens[j].Token })
	return tokens, nil
}

func tokenKey(token string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"token": &types.AttributeValueMemberS{Value: token},
	}
}
