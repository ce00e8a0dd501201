// Package dynamostore keeps boot records in a DynamoDB table, one item per
// satellite, so a fleet of simulated kernels can share one table.
package dynamostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/specialistvlad/intellisat/internal/bootstore"
)

// DefaultSatelliteID is the partition key used when none is configured.
const DefaultSatelliteID = "intellisat"

// API is the part of *dynamodb.Client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Config selects the table and the item.
type Config struct {
	Table       string
	Region      string
	Endpoint    string
	SatelliteID string
}

// Store is a DynamoDB-backed bootstore.Store.
type Store struct {
	db          API
	table       string
	satelliteID string
}

type item struct {
	SatelliteID string `dynamodbav:"satellite_id"`
	bootstore.State
}

// New builds a client from the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Table == "" {
		return nil, errors.New("dynamo table is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-2"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Table, cfg.SatelliteID), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(db API, table, satelliteID string) *Store {
	if satelliteID == "" {
		satelliteID = DefaultSatelliteID
	}
	return &Store{db: db, table: table, satelliteID: satelliteID}
}

func (s *Store) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"satellite_id": &types.AttributeValueMemberS{Value: s.satelliteID},
	}
}

// Load implements bootstore.Store.
func (s *Store) Load(ctx context.Context) (bootstore.State, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return bootstore.State{}, fmt.Errorf("failed to get boot state: %w", err)
	}
	if out.Item == nil {
		return bootstore.State{}, bootstore.ErrNotFound
	}

	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return bootstore.State{}, fmt.Errorf("failed to decode boot state: %w", err)
	}
	return it.State, nil
}

// Save implements bootstore.Store.
func (s *Store) Save(ctx context.Context, st bootstore.State) error {
	av, err := attributevalue.MarshalMap(item{SatelliteID: s.satelliteID, State: st})
	if err != nil {
		return fmt.Errorf("failed to encode boot state: %w", err)
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put boot state: %w", err)
	}
	return nil
}
