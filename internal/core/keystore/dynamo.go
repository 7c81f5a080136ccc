package keystore

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"docuchat/internal/core"
)

// DynamoKeyStore validates API bearer tokens against a DynamoDB table whose
// partition key is the api_key string. A key is valid iff its item exists.
type DynamoKeyStore struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoKeyStore(ctx context.Context, region, table string) (*DynamoKeyStore, error) {
	if table == "" {
		return nil, fmt.Errorf("api key table name is empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &DynamoKeyStore{client: dynamodb.NewFromConfig(cfg), table: table}, nil
}

func (s *DynamoKeyStore) ValidateKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"api_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return false, fmt.Errorf("key lookup: %w", err)
	}
	return out.Item != nil, nil
}

var _ core.KeyStore = (*DynamoKeyStore)(nil)

// Static is an in-process key store for tests and local development.
type Static map[string]struct{}

func NewStatic(keys ...string) Static {
	s := make(Static, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Static) ValidateKey(_ context.Context, key string) (bool, error) {
	_, ok := s[key]
	return ok, nil
}

var _ core.KeyStore = (Static)(nil)
