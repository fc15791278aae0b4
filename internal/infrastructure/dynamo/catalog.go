package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/givingly/giveaway-api/internal/domain"
)

// CatalogRepo provides typed DynamoDB operations for the three small lookup
// tables: parent categories, categories and status types. They share one repo
// because each is a flat id->record table with identical access patterns.
type CatalogRepo struct {
	client                *dynamodb.Client
	parentCategoriesTable string
	categoriesTable       string
	statusTypesTable      string
}

func NewCatalogRepo(client *dynamodb.Client, parentCategories, categories, statusTypes string) *CatalogRepo {
	return &CatalogRepo{
		client:                client,
		parentCategoriesTable: parentCategories,
		categoriesTable:       categories,
		statusTypesTable:      statusTypes,
	}
}

// ── Parent categories ──────────────────────────────────────────────────────

func (r *CatalogRepo) PutParentCategory(ctx context.Context, pc *domain.ParentCategory) error {
	return r.put(ctx, r.parentCategoriesTable, pc)
}

func (r *CatalogRepo) GetParentCategory(ctx context.Context, id string) (*domain.ParentCategory, error) {
	var pc domain.ParentCategory
	if err := r.get(ctx, r.parentCategoriesTable, "parent_category_id", id, &pc); err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *CatalogRepo) ScanParentCategories(ctx context.Context) ([]domain.ParentCategory, error) {
	var out []domain.ParentCategory
	if err := r.scan(ctx, r.parentCategoriesTable, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Categories ─────────────────────────────────────────────────────────────

func (r *CatalogRepo) PutCategory(ctx context.Context, c *domain.Category) error {
	return r.put(ctx, r.categoriesTable, c)
}

func (r *CatalogRepo) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := r.get(ctx, r.categoriesTable, "category_id", id, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepo) ScanCategories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := r.scan(ctx, r.categoriesTable, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCategoriesByParent queries the parent GSI.
func (r *CatalogRepo) ListCategoriesByParent(ctx context.Context, parentID string) ([]domain.Category, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.categoriesTable),
		IndexName:              aws.String("parent-index"),
		KeyConditionExpression: aws.String("parent = :p"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p": &types.AttributeValueMemberS{Value: parentID},
		},
	})
	if err != nil {
		return nil, err
	}
	var categories []domain.Category
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ── Status types ───────────────────────────────────────────────────────────

func (r *CatalogRepo) PutStatusType(ctx context.Context, st *domain.StatusType) error {
	return r.put(ctx, r.statusTypesTable, st)
}

func (r *CatalogRepo) GetStatusType(ctx context.Context, id string) (*domain.StatusType, error) {
	var st domain.StatusType
	if err := r.get(ctx, r.statusTypesTable, "status_type_id", id, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *CatalogRepo) ScanStatusTypes(ctx context.Context) ([]domain.StatusType, error) {
	var out []domain.StatusType
	if err := r.scan(ctx, r.statusTypesTable, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CatalogRepo) DeleteStatusType(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.statusTypesTable),
		Key:       strKey("status_type_id", id),
	})
	return err
}

// ── shared plumbing ────────────────────────────────────────────────────────

func (r *CatalogRepo) put(ctx context.Context, table string, v interface{}) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal catalog item: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	return err
}

func (r *CatalogRepo) get(ctx context.Context, table, keyName, id string, dst interface{}) error {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       strKey(keyName, id),
	})
	if err != nil {
		return err
	}
	if out.Item == nil {
		return fmt.Errorf("catalog item %s: %w", id, domain.ErrNotFound)
	}
	return attributevalue.UnmarshalMap(out.Item, dst)
}

func (r *CatalogRepo) scan(ctx context.Context, table string, dst interface{}) error {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{TableName: aws.String(table)})
	if err != nil {
		return err
	}
	return attributevalue.UnmarshalListOfMaps(out.Items, dst)
}
