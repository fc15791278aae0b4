package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/givingly/giveaway-api/internal/domain"
)

// CommunityRepo provides typed DynamoDB operations for the communities table.
type CommunityRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCommunityRepo(client *dynamodb.Client, tableName string) *CommunityRepo {
	return &CommunityRepo{client: client, tableName: tableName}
}

func (r *CommunityRepo) Put(ctx context.Context, c *domain.Community) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal community: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CommunityRepo) Get(ctx context.Context, communityID string) (*domain.Community, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("community_id", communityID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("community not found: %w", domain.ErrNotFound)
	}
	var c domain.Community
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommunityRepo) Scan(ctx context.Context) ([]domain.Community, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	if err != nil {
		return nil, err
	}
	var communities []domain.Community
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &communities); err != nil {
		return nil, err
	}
	return communities, nil
}

func (r *CommunityRepo) Update(ctx context.Context, communityID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("community_id", communityID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
