package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/givingly/giveaway-api/internal/domain"
)

// PictureRepo provides typed DynamoDB operations for the pictures table.
type PictureRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPictureRepo(client *dynamodb.Client, tableName string) *PictureRepo {
	return &PictureRepo{client: client, tableName: tableName}
}

func (r *PictureRepo) Put(ctx context.Context, p *domain.Picture) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal picture: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PictureRepo) Get(ctx context.Context, pictureID string) (*domain.Picture, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("picture_id", pictureID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("picture not found: %w", domain.ErrNotFound)
	}
	var p domain.Picture
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PictureRepo) SoftDelete(ctx context.Context, pictureID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldDeleted: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("picture_id", pictureID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
