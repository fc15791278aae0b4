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

// GiveawayRepo provides typed DynamoDB operations for the giveaways table.
//
// Flag and vote mutations are expressed as single UpdateItem calls against
// map document paths, so each one is atomic at the item level. The removal
// and restore transitions carry condition expressions re-checking is_removed;
// a concurrent loser gets a conditional-check failure, never a double
// transition.
type GiveawayRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewGiveawayRepo(client *dynamodb.Client, tableName string) *GiveawayRepo {
	return &GiveawayRepo{client: client, tableName: tableName}
}

func (r *GiveawayRepo) Put(ctx context.Context, g *domain.Giveaway) error {
	item, err := attributevalue.MarshalMap(g)
	if err != nil {
		return fmt.Errorf("marshal giveaway: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *GiveawayRepo) Get(ctx context.Context, giveawayID string) (*domain.Giveaway, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("giveaway_id", giveawayID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("giveaway not found: %w", domain.ErrNotFound)
	}
	var g domain.Giveaway
	if err := attributevalue.UnmarshalMap(out.Item, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GiveawayRepo) Update(ctx context.Context, giveawayID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("giveaway_id", giveawayID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// SetFlag records a flag by userID, replacing any earlier flag date by the
// same user in the same write.
func (r *GiveawayRepo) SetFlag(ctx context.Context, giveawayID, userID string, date time.Time) error {
	av, err := attributevalue.Marshal(date)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("giveaway_id", giveawayID),
		UpdateExpression:          aws.String("SET " + fieldFlags + ".#uid = :d"),
		ExpressionAttributeNames:  map[string]string{"#uid": userID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":d": av},
	})
	return err
}

// ClearFlags resets the flag map to empty.
func (r *GiveawayRepo) ClearFlags(ctx context.Context, giveawayID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("giveaway_id", giveawayID),
		UpdateExpression: aws.String("SET " + fieldFlags + " = :empty"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}},
		},
	})
	return err
}

// MarkRemoved flips the soft-delete fields, guarded by is_removed not already
// being true. Returns domain.ErrAlreadyRemoved when the guard fails, so two
// concurrent removals report exactly one winner.
func (r *GiveawayRepo) MarkRemoved(ctx context.Context, giveawayID, removeUserID string, date time.Time) error {
	av, err := attributevalue.Marshal(date)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("giveaway_id", giveawayID),
		UpdateExpression: aws.String(fmt.Sprintf("SET %s = :t, %s = :u, %s = :d",
			fieldIsRemoved, fieldRemoveUserID, fieldRemoveDate)),
		ConditionExpression: aws.String(fieldIsRemoved + " <> :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":u": &types.AttributeValueMemberS{Value: removeUserID},
			":d": av,
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("giveaway %s: %w", giveawayID, domain.ErrAlreadyRemoved)
	}
	return err
}

// MarkRestored clears is_removed, guarded by it currently being true. The
// remove_user_id/remove_date tombstone fields are left in place.
func (r *GiveawayRepo) MarkRestored(ctx context.Context, giveawayID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("giveaway_id", giveawayID),
		UpdateExpression:    aws.String("SET " + fieldIsRemoved + " = :f"),
		ConditionExpression: aws.String(fieldIsRemoved + " = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":f": &types.AttributeValueMemberBOOL{Value: false},
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("giveaway %s: %w", giveawayID, domain.ErrNotRemoved)
	}
	return err
}

// Vote sets the user's key in one tally map and removes it from the opposite
// map in the same update. The single-statement write is what enforces the
// invariant that a user never holds both an upvote and a downvote.
func (r *GiveawayRepo) Vote(ctx context.Context, giveawayID, userID string, date time.Time, up bool) error {
	av, err := attributevalue.Marshal(date)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf("SET %s.#uid = :d REMOVE %s.#uid", fieldUpvotes, fieldDownvotes)
	if !up {
		expr = fmt.Sprintf("SET %s.#uid = :d REMOVE %s.#uid", fieldDownvotes, fieldUpvotes)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("giveaway_id", giveawayID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  map[string]string{"#uid": userID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":d": av},
	})
	return err
}

// Unvote removes the user from both tally maps. Removing an absent key is a
// no-op, so the call is idempotent.
func (r *GiveawayRepo) Unvote(ctx context.Context, giveawayID, userID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("giveaway_id", giveawayID),
		UpdateExpression:         aws.String(fmt.Sprintf("REMOVE %s.#uid, %s.#uid", fieldUpvotes, fieldDownvotes)),
		ExpressionAttributeNames: map[string]string{"#uid": userID},
	})
	return err
}

// ReplaceStatusUpdates overwrites the whole status list (coalescer step one).
func (r *GiveawayRepo) ReplaceStatusUpdates(ctx context.Context, giveawayID string, updates []domain.StatusUpdate) error {
	av, err := attributevalue.Marshal(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("giveaway_id", giveawayID),
		UpdateExpression:          aws.String("SET " + fieldStatusUpdates + " = :l"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":l": av},
	})
	return err
}

// AppendStatusUpdate appends one entry to the status list (coalescer step two).
func (r *GiveawayRepo) AppendStatusUpdate(ctx context.Context, giveawayID string, su domain.StatusUpdate) error {
	av, err := attributevalue.Marshal([]domain.StatusUpdate{su})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("giveaway_id", giveawayID),
		UpdateExpression: aws.String(fmt.Sprintf("SET %s = list_append(if_not_exists(%s, :empty), :su)",
			fieldStatusUpdates, fieldStatusUpdates)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":su":    av,
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		},
	})
	return err
}

// ListActive returns giveaways whose end date is at/after now, whose start
// date is within the next 24 hours or earlier, and which are not removed.
func (r *GiveawayRepo) ListActive(ctx context.Context, now time.Time) ([]domain.Giveaway, error) {
	nowAV, err := attributevalue.Marshal(now)
	if err != nil {
		return nil, err
	}
	horizonAV, err := attributevalue.Marshal(now.Add(24 * time.Hour))
	if err != nil {
		return nil, err
	}
	return r.scanFiltered(ctx, "end_date >= :now AND start_date <= :horizon AND "+fieldIsRemoved+" <> :t",
		map[string]types.AttributeValue{
			":now":     nowAV,
			":horizon": horizonAV,
			":t":       &types.AttributeValueMemberBOOL{Value: true},
		})
}

// ListByUser queries the user_id GSI; removed giveaways are included so
// owners can see (and moderators restore) their removed postings.
func (r *GiveawayRepo) ListByUser(ctx context.Context, userID string) ([]domain.Giveaway, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var giveaways []domain.Giveaway
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &giveaways); err != nil {
		return nil, err
	}
	return giveaways, nil
}

func (r *GiveawayRepo) ListByCommunity(ctx context.Context, communityID string) ([]domain.Giveaway, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("community_id-index"),
		KeyConditionExpression: aws.String("community_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: communityID},
		},
	})
	if err != nil {
		return nil, err
	}
	var giveaways []domain.Giveaway
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &giveaways); err != nil {
		return nil, err
	}
	return giveaways, nil
}

// ListFlagged returns giveaways with at least one outstanding flag that are
// not yet removed, for the moderation queue.
func (r *GiveawayRepo) ListFlagged(ctx context.Context) ([]domain.Giveaway, error) {
	return r.scanFiltered(ctx, fmt.Sprintf("size(%s) > :zero AND %s <> :t", fieldFlags, fieldIsRemoved),
		map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":t":    &types.AttributeValueMemberBOOL{Value: true},
		})
}

func (r *GiveawayRepo) scanFiltered(ctx context.Context, filter string, values map[string]types.AttributeValue) ([]domain.Giveaway, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return nil, err
	}
	var giveaways []domain.Giveaway
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &giveaways); err != nil {
		return nil, err
	}
	return giveaways, nil
}
