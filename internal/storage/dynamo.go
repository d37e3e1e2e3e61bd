package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ignite/fundraiser-tracker/internal/domain"
)

// DynamoStore is the DynamoDB-backed Store. All records live in one table:
//
//	Account:  PK=ACCOUNT#<id>   SK=META
//	Profile:  PK=PROFILE#<id>   SK=META            GSI1PK=ACCOUNT#<owner>
//	Campaign: PK=CAMPAIGN#<id>  SK=META            GSI1PK=PROFILE#<profile>
//	Order:    PK=ORDER#<id>     SK=META            GSI1PK=CAMPAIGN#<campaign>  GSI2PK=PROFILE#<profile>
//	Share:    PK=PROFILE#<id>   SK=SHARE#<account> GSI1PK=ACCOUNT#<account>
//	Invite:   PK=INVITE#<code>  SK=META            GSI1PK=PROFILE#<profile>
//
// GSI1/GSI2 are global secondary indexes over the back-references; their
// reads are eventually consistent and may trail the primary write.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
	region    string
}

const (
	skMeta      = "META"
	gsi1Name    = "GSI1"
	gsi2Name    = "GSI2"
	sharePrefix = "SHARE#"
	timeLayout  = time.RFC3339
)

// NewDynamoStore creates a DynamoDB-backed store. An empty profile uses the
// default credential chain.
func NewDynamoStore(ctx context.Context, tableName, region, profile string) (*DynamoStore, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &DynamoStore{
		client:    dynamodb.NewFromConfig(cfg),
		tableName: tableName,
		region:    region,
	}, nil
}

func accountPK(id string) string    { return "ACCOUNT#" + id }
func profilePK(id string) string    { return "PROFILE#" + id }
func campaignPK(id string) string   { return "CAMPAIGN#" + id }
func orderPK(id string) string      { return "ORDER#" + id }
func invitePK(code string) string   { return "INVITE#" + code }
func shareSK(account string) string { return sharePrefix + account }

func fmtTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ----------------------------------------------------------------------------
// Accounts

type accountItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ID        string `dynamodbav:"ID"`
	Email     string `dynamodbav:"Email"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

// GetAccount retrieves an account by id, or nil if it does not exist.
func (s *DynamoStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	item, err := s.getItem(ctx, accountPK(id), skMeta)
	if err != nil || item == nil {
		return nil, err
	}

	var rec accountItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling account: %w", err)
	}

	return &domain.Account{
		ID:        rec.ID,
		Email:     rec.Email,
		CreatedAt: parseTime(rec.CreatedAt),
	}, nil
}

// PutAccount writes an account record.
func (s *DynamoStore) PutAccount(ctx context.Context, account *domain.Account) error {
	rec := accountItem{
		PK:        accountPK(account.ID),
		SK:        skMeta,
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: fmtTime(account.CreatedAt),
	}
	return s.putItem(ctx, rec, "account")
}

// ----------------------------------------------------------------------------
// Profiles

type profileItem struct {
	PK             string `dynamodbav:"PK"`
	SK             string `dynamodbav:"SK"`
	GSI1PK         string `dynamodbav:"GSI1PK"`
	GSI1SK         string `dynamodbav:"GSI1SK"`
	ID             string `dynamodbav:"ID"`
	OwnerAccountID string `dynamodbav:"OwnerAccountID"`
	Name           string `dynamodbav:"Name"`
	CreatedAt      string `dynamodbav:"CreatedAt"`
	UpdatedAt      string `dynamodbav:"UpdatedAt"`
}

func (r profileItem) toDomain() domain.Profile {
	return domain.Profile{
		ID:             r.ID,
		OwnerAccountID: r.OwnerAccountID,
		Name:           r.Name,
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

// GetProfile retrieves a profile by id, or nil if it does not exist.
func (s *DynamoStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	item, err := s.getItem(ctx, profilePK(id), skMeta)
	if err != nil || item == nil {
		return nil, err
	}

	var rec profileItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling profile: %w", err)
	}
	p := rec.toDomain()
	return &p, nil
}

// PutProfile writes a profile record.
func (s *DynamoStore) PutProfile(ctx context.Context, profile *domain.Profile) error {
	rec := profileItem{
		PK:             profilePK(profile.ID),
		SK:             skMeta,
		GSI1PK:         accountPK(profile.OwnerAccountID),
		GSI1SK:         profilePK(profile.ID),
		ID:             profile.ID,
		OwnerAccountID: profile.OwnerAccountID,
		Name:           profile.Name,
		CreatedAt:      fmtTime(profile.CreatedAt),
		UpdatedAt:      fmtTime(profile.UpdatedAt),
	}
	return s.putItem(ctx, rec, "profile")
}

// DeleteProfile removes the profile record. Deleting an absent profile is
// not an error.
func (s *DynamoStore) DeleteProfile(ctx context.Context, id string) error {
	return s.deleteItem(ctx, profilePK(id), skMeta, "profile")
}

// ListProfilesByOwner queries GSI1 for profiles owned by the account.
func (s *DynamoStore) ListProfilesByOwner(ctx context.Context, accountID string) ([]domain.Profile, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: accountPK(accountID)},
			":prefix": &types.AttributeValueMemberS{Value: "PROFILE#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying profiles by owner: %w", err)
	}

	var profiles []domain.Profile
	for _, item := range result.Items {
		var rec profileItem
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			continue
		}
		profiles = append(profiles, rec.toDomain())
	}
	return profiles, nil
}

// ----------------------------------------------------------------------------
// Campaigns

type campaignItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	GSI1PK    string `dynamodbav:"GSI1PK"`
	GSI1SK    string `dynamodbav:"GSI1SK"`
	ID        string `dynamodbav:"ID"`
	ProfileID string `dynamodbav:"ProfileID"`
	Name      string `dynamodbav:"Name"`
	StartDate string `dynamodbav:"StartDate"`
	EndDate   string `dynamodbav:"EndDate"`
	CatalogID string `dynamodbav:"CatalogID,omitempty"`
	CreatedAt string `dynamodbav:"CreatedAt"`
	UpdatedAt string `dynamodbav:"UpdatedAt"`
}

func (r campaignItem) toDomain() domain.Campaign {
	return domain.Campaign{
		ID:        r.ID,
		ProfileID: r.ProfileID,
		Name:      r.Name,
		StartDate: parseTime(r.StartDate),
		EndDate:   parseTime(r.EndDate),
		CatalogID: r.CatalogID,
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}
}

// GetCampaign retrieves a campaign by id, or nil if it does not exist.
func (s *DynamoStore) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	item, err := s.getItem(ctx, campaignPK(id), skMeta)
	if err != nil || item == nil {
		return nil, err
	}

	var rec campaignItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling campaign: %w", err)
	}
	c := rec.toDomain()
	return &c, nil
}

// PutCampaign writes a campaign record.
func (s *DynamoStore) PutCampaign(ctx context.Context, campaign *domain.Campaign) error {
	rec := campaignItem{
		PK:        campaignPK(campaign.ID),
		SK:        skMeta,
		GSI1PK:    profilePK(campaign.ProfileID),
		GSI1SK:    campaignPK(campaign.ID),
		ID:        campaign.ID,
		ProfileID: campaign.ProfileID,
		Name:      campaign.Name,
		StartDate: fmtTime(campaign.StartDate),
		EndDate:   fmtTime(campaign.EndDate),
		CatalogID: campaign.CatalogID,
		CreatedAt: fmtTime(campaign.CreatedAt),
		UpdatedAt: fmtTime(campaign.UpdatedAt),
	}
	return s.putItem(ctx, rec, "campaign")
}

// DeleteCampaign removes the campaign record.
func (s *DynamoStore) DeleteCampaign(ctx context.Context, id string) error {
	return s.deleteItem(ctx, campaignPK(id), skMeta, "campaign")
}

// ListCampaignsByProfile queries GSI1 for campaigns under a profile.
func (s *DynamoStore) ListCampaignsByProfile(ctx context.Context, profileID string) ([]domain.Campaign, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: profilePK(profileID)},
			":prefix": &types.AttributeValueMemberS{Value: "CAMPAIGN#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying campaigns by profile: %w", err)
	}

	var campaigns []domain.Campaign
	for _, item := range result.Items {
		var rec campaignItem
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			continue
		}
		campaigns = append(campaigns, rec.toDomain())
	}
	return campaigns, nil
}

// ----------------------------------------------------------------------------
// Orders

type lineItemRecord struct {
	ProductID      string `dynamodbav:"ProductID"`
	Quantity       int    `dynamodbav:"Quantity"`
	UnitPriceCents int64  `dynamodbav:"UnitPriceCents"`
}

type orderItem struct {
	PK            string           `dynamodbav:"PK"`
	SK            string           `dynamodbav:"SK"`
	GSI1PK        string           `dynamodbav:"GSI1PK"`
	GSI1SK        string           `dynamodbav:"GSI1SK"`
	GSI2PK        string           `dynamodbav:"GSI2PK"`
	GSI2SK        string           `dynamodbav:"GSI2SK"`
	ID            string           `dynamodbav:"ID"`
	CampaignID    string           `dynamodbav:"CampaignID"`
	ProfileID     string           `dynamodbav:"ProfileID"`
	CustomerName  string           `dynamodbav:"CustomerName"`
	CustomerEmail string           `dynamodbav:"CustomerEmail,omitempty"`
	CustomerPhone string           `dynamodbav:"CustomerPhone,omitempty"`
	LineItems     []lineItemRecord `dynamodbav:"LineItems"`
	TotalCents    int64            `dynamodbav:"TotalCents"`
	CreatedAt     string           `dynamodbav:"CreatedAt"`
	UpdatedAt     string           `dynamodbav:"UpdatedAt"`
}

func (r orderItem) toDomain() domain.Order {
	items := make([]domain.LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		items = append(items, domain.LineItem{
			ProductID:      li.ProductID,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		})
	}
	return domain.Order{
		ID:            r.ID,
		CampaignID:    r.CampaignID,
		ProfileID:     r.ProfileID,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		LineItems:     items,
		TotalCents:    r.TotalCents,
		CreatedAt:     parseTime(r.CreatedAt),
		UpdatedAt:     parseTime(r.UpdatedAt),
	}
}

// GetOrder retrieves an order by id, or nil if it does not exist.
func (s *DynamoStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	item, err := s.getItem(ctx, orderPK(id), skMeta)
	if err != nil || item == nil {
		return nil, err
	}

	var rec orderItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling order: %w", err)
	}
	o := rec.toDomain()
	return &o, nil
}

// PutOrder writes an order record.
func (s *DynamoStore) PutOrder(ctx context.Context, order *domain.Order) error {
	items := make([]lineItemRecord, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, lineItemRecord{
			ProductID:      li.ProductID,
			Quantity:       li.Quantity,
			UnitPriceCents: li.UnitPriceCents,
		})
	}
	rec := orderItem{
		PK:            orderPK(order.ID),
		SK:            skMeta,
		GSI1PK:        campaignPK(order.CampaignID),
		GSI1SK:        orderPK(order.ID),
		GSI2PK:        profilePK(order.ProfileID),
		GSI2SK:        orderPK(order.ID),
		ID:            order.ID,
		CampaignID:    order.CampaignID,
		ProfileID:     order.ProfileID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		LineItems:     items,
		TotalCents:    order.TotalCents,
		CreatedAt:     fmtTime(order.CreatedAt),
		UpdatedAt:     fmtTime(order.UpdatedAt),
	}
	return s.putItem(ctx, rec, "order")
}

// DeleteOrder removes the order record.
func (s *DynamoStore) DeleteOrder(ctx context.Context, id string) error {
	return s.deleteItem(ctx, orderPK(id), skMeta, "order")
}

// ListOrdersByCampaign queries GSI1 for orders under a campaign.
func (s *DynamoStore) ListOrdersByCampaign(ctx context.Context, campaignID string) ([]domain.Order, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: campaignPK(campaignID)},
			":prefix": &types.AttributeValueMemberS{Value: "ORDER#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying orders by campaign: %w", err)
	}
	return unmarshalOrders(result.Items), nil
}

// ListOrdersByProfile queries GSI2, which indexes the denormalized profile
// back-reference.
func (s *DynamoStore) ListOrdersByProfile(ctx context.Context, profileID string) ([]domain.Order, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsi2Name),
		KeyConditionExpression: aws.String("GSI2PK = :pk AND begins_with(GSI2SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: profilePK(profileID)},
			":prefix": &types.AttributeValueMemberS{Value: "ORDER#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying orders by profile: %w", err)
	}
	return unmarshalOrders(result.Items), nil
}

func unmarshalOrders(items []map[string]types.AttributeValue) []domain.Order {
	var orders []domain.Order
	for _, item := range items {
		var rec orderItem
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			continue
		}
		orders = append(orders, rec.toDomain())
	}
	return orders
}

// ----------------------------------------------------------------------------
// Shares

type shareItem struct {
	PK                 string   `dynamodbav:"PK"`
	SK                 string   `dynamodbav:"SK"`
	GSI1PK             string   `dynamodbav:"GSI1PK"`
	GSI1SK             string   `dynamodbav:"GSI1SK"`
	ProfileID          string   `dynamodbav:"ProfileID"`
	TargetAccountID    string   `dynamodbav:"TargetAccountID"`
	Permissions        []string `dynamodbav:"Permissions"`
	CreatedByAccountID string   `dynamodbav:"CreatedByAccountID"`
	CreatedAt          string   `dynamodbav:"CreatedAt"`
}

func (r shareItem) toDomain() domain.Share {
	perms := make(domain.PermissionSet, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, domain.Permission(p))
	}
	return domain.Share{
		ProfileID:          r.ProfileID,
		TargetAccountID:    r.TargetAccountID,
		Permissions:        perms,
		CreatedByAccountID: r.CreatedByAccountID,
		CreatedAt:          parseTime(r.CreatedAt),
	}
}

// GetShare retrieves the share for (profile, account), or nil if absent.
func (s *DynamoStore) GetShare(ctx context.Context, profileID, accountID string) (*domain.Share, error) {
	item, err := s.getItem(ctx, profilePK(profileID), shareSK(accountID))
	if err != nil || item == nil {
		return nil, err
	}

	var rec shareItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling share: %w", err)
	}
	sh := rec.toDomain()
	return &sh, nil
}

// PutShare writes the share row for (profile, account). A second put for the
// same pair replaces the permission set; the composite key guarantees no
// duplicate rows.
func (s *DynamoStore) PutShare(ctx context.Context, share *domain.Share) error {
	perms := make([]string, 0, len(share.Permissions))
	for _, p := range share.Permissions {
		perms = append(perms, string(p))
	}
	rec := shareItem{
		PK:                 profilePK(share.ProfileID),
		SK:                 shareSK(share.TargetAccountID),
		GSI1PK:             accountPK(share.TargetAccountID),
		GSI1SK:             profilePK(share.ProfileID),
		ProfileID:          share.ProfileID,
		TargetAccountID:    share.TargetAccountID,
		Permissions:        perms,
		CreatedByAccountID: share.CreatedByAccountID,
		CreatedAt:          fmtTime(share.CreatedAt),
	}
	return s.putItem(ctx, rec, "share")
}

// DeleteShare removes the share row for (profile, account).
func (s *DynamoStore) DeleteShare(ctx context.Context, profileID, accountID string) error {
	return s.deleteItem(ctx, profilePK(profileID), shareSK(accountID), "share")
}

// ListSharesByProfile queries the primary table for all share rows under the
// profile partition. This read is strongly consistent because it hits the
// base table, not an index.
func (s *DynamoStore) ListSharesByProfile(ctx context.Context, profileID string) ([]domain.Share, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: profilePK(profileID)},
			":prefix": &types.AttributeValueMemberS{Value: sharePrefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying shares by profile: %w", err)
	}

	var shares []domain.Share
	for _, item := range result.Items {
		var rec shareItem
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			continue
		}
		shares = append(shares, rec.toDomain())
	}
	return shares, nil
}

// ListSharesByAccount queries GSI1 for profiles shared with the account.
func (s *DynamoStore) ListSharesByAccount(ctx context.Context, accountID string) ([]domain.Share, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: accountPK(accountID)},
			":prefix": &types.AttributeValueMemberS{Value: "PROFILE#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying shares by account: %w", err)
	}

	var shares []domain.Share
	for _, item := range result.Items {
		var rec shareItem
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			continue
		}
		// The account partition also indexes owned profiles; skip anything
		// that isn't a share row.
		if rec.TargetAccountID == "" {
			continue
		}
		shares = append(shares, rec.toDomain())
	}
	return shares, nil
}

// ----------------------------------------------------------------------------
// Invites

type inviteItem struct {
	PK                 string   `dynamodbav:"PK"`
	SK                 string   `dynamodbav:"SK"`
	GSI1PK             string   `dynamodbav:"GSI1PK"`
	GSI1SK             string   `dynamodbav:"GSI1SK"`
	Code               string   `dynamodbav:"Code"`
	ProfileID          string   `dynamodbav:"ProfileID"`
	Permissions        []string `dynamodbav:"Permissions"`
	CreatedByAccountID string   `dynamodbav:"CreatedByAccountID"`
	CreatedAt          string   `dynamodbav:"CreatedAt"`
	ExpiresAt          string   `dynamodbav:"ExpiresAt"`
	Used               bool     `dynamodbav:"Used"`
	RedeemedByAccount  string   `dynamodbav:"RedeemedByAccount,omitempty"`
}

func (r inviteItem) toDomain() domain.Invite {
	perms := make(domain.PermissionSet, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, domain.Permission(p))
	}
	return domain.Invite{
		Code:               r.Code,
		ProfileID:          r.ProfileID,
		Permissions:        perms,
		CreatedByAccountID: r.CreatedByAccountID,
		CreatedAt:          parseTime(r.CreatedAt),
		ExpiresAt:          parseTime(r.ExpiresAt),
		Used:               r.Used,
		RedeemedByAccount:  r.RedeemedByAccount,
	}
}

// GetInvite retrieves an invite by code, or nil if it does not exist.
func (s *DynamoStore) GetInvite(ctx context.Context, code string) (*domain.Invite, error) {
	item, err := s.getItem(ctx, invitePK(code), skMeta)
	if err != nil || item == nil {
		return nil, err
	}

	var rec inviteItem
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling invite: %w", err)
	}
	inv := rec.toDomain()
	return &inv, nil
}

// PutInvite writes an invite record.
func (s *DynamoStore) PutInvite(ctx context.Context, invite *domain.Invite) error {
	perms := make([]string, 0, len(invite.Permissions))
	for _, p := range invite.Permissions {
		perms = append(perms, string(p))
	}
	rec := inviteItem{
		PK:                 invitePK(invite.Code),
		SK:                 skMeta,
		GSI1PK:             profilePK(invite.ProfileID),
		GSI1SK:             invitePK(invite.Code),
		Code:               invite.Code,
		ProfileID:          invite.ProfileID,
		Permissions:        perms,
		CreatedByAccountID: invite.CreatedByAccountID,
		CreatedAt:          fmtTime(invite.CreatedAt),
		ExpiresAt:          fmtTime(invite.ExpiresAt),
		Used:               invite.Used,
		RedeemedByAccount:  invite.RedeemedByAccount,
	}
	return s.putItem(ctx, rec, "invite")
}

// DeleteInvite removes the invite record.
func (s *DynamoStore) DeleteInvite(ctx context.Context, code string) error {
	return s.deleteItem(ctx, invitePK(code), skMeta, "invite")
}

// ListInvitesByProfile queries GSI1 for invites under a profile. Used and
// expired invites are included; the invite manager filters them.
func (s *DynamoStore) ListInvitesByProfile(ctx context.Context, profileID string) ([]domain.Invite, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(gsi1Name),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: profilePK(profileID)},
			":prefix": &types.AttributeValueMemberS{Value: "INVITE#"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("querying invites by profile: %w", err)
	}

	var invites []domain.Invite
	for _, item := range result.Items {
		var rec inviteItem
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			continue
		}
		invites = append(invites, rec.toDomain())
	}
	return invites, nil
}

// MarkInviteUsed performs the conditional write that makes redemption
// single-use: the update only succeeds while Used is still false, so exactly
// one of any set of concurrent redeemers wins.
func (s *DynamoStore) MarkInviteUsed(ctx context.Context, code, redeemerAccountID string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: invitePK(code)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		ConditionExpression: aws.String("attribute_exists(PK) AND Used = :false"),
		UpdateExpression:    aws.String("SET Used = :true, RedeemedByAccount = :acct"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":acct":  &types.AttributeValueMemberS{Value: redeemerAccountID},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Either a racer won or the invite vanished mid-flight; both
			// surface as already-used so racers observe one outcome.
			return domain.ErrInviteAlreadyUsed
		}
		return fmt.Errorf("marking invite used: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Shared low-level helpers

func (s *DynamoStore) getItem(ctx context.Context, pk, sk string) (map[string]types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}
	return result.Item, nil
}

func (s *DynamoStore) putItem(ctx context.Context, rec interface{}, kind string) error {
	av, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", kind, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting %s to DynamoDB: %w", kind, err)
	}
	return nil
}

func (s *DynamoStore) deleteItem(ctx context.Context, pk, sk, kind string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting %s from DynamoDB: %w", kind, err)
	}
	return nil
}
