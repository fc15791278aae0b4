package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/givingly/giveaway-api/internal/domain"
)

// CommentRepo provides typed DynamoDB operations for the giveaway_comments
// table. Flag and removal mutations mirror GiveawayRepo's single-update
// semantics.
type CommentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCommentRepo(client *dynamodb.Client, tableName string) *CommentRepo {
	return &CommentRepo{client: client, tableName: tableName}
}

func (r *CommentRepo) Put(ctx context.Context, c *domain.GiveawayComment) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CommentRepo) Get(ctx context.Context, commentID string) (*domain.GiveawayComment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("comment_id", commentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("comment not found: %w", domain.ErrNotFound)
	}
	var c domain.GiveawayComment
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) ListByGiveaway(ctx context.Context, giveawayID string) ([]domain.GiveawayComment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("giveaway_id-index"),
		KeyConditionExpression: aws.String("giveaway_id = :gid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gid": &types.AttributeValueMemberS{Value: giveawayID},
		},
	})
	if err != nil {
		return nil, err
	}
	var comments []domain.GiveawayComment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepo) SetFlag(ctx context.Context, commentID, userID string, date time.Time) error {
	av, err := attributevalue.Marshal(date)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("comment_id", commentID),
		UpdateExpression:          aws.String("SET flags.#uid = :d"),
		ExpressionAttributeNames:  map[string]string{"#uid": userID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":d": av},
	})
	return err
}

func (r *CommentRepo) ClearFlags(ctx context.Context, commentID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("comment_id", commentID),
		UpdateExpression: aws.String("SET flags = :empty"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}},
		},
	})
	return err
}

// MarkRemoved soft-deletes the comment, guarded against double removal.
func (r *CommentRepo) MarkRemoved(ctx context.Context, commentID, removeUserID string, date time.Time) error {
	av, err := attributevalue.Marshal(date)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("comment_id", commentID),
		UpdateExpression:    aws.String("SET is_removed = :t, remove_user_id = :u, remove_date = :d"),
		ConditionExpression: aws.String("is_removed <> :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":u": &types.AttributeValueMemberS{Value: removeUserID},
			":d": av,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("comment %s: %w", commentID, domain.ErrAlreadyRemoved)
	}
	return err
}
