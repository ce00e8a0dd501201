package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/intellisat/internal/bootstore"
	"github.com/specialistvlad/intellisat/internal/config"
	"github.com/specialistvlad/intellisat/internal/dynamostore"
	"github.com/specialistvlad/intellisat/internal/filestore"
	"github.com/specialistvlad/intellisat/internal/inmemorystore"
)

// newBootStore returns the store selected by the boot block.
func newBootStore(ctx context.Context, b config.Boot) (bootstore.Store, error) {
	switch b.Store {
	case config.StoreFile:
		return filestore.New(b.Path), nil
	case config.StoreDynamo:
		st, err := dynamostore.New(ctx, dynamostore.Config{
			Table:       b.Table,
			Region:      b.Region,
			Endpoint:    b.Endpoint,
			SatelliteID: b.SatelliteID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init dynamo boot store: %w", err)
		}
		return st, nil
	default:
		return inmemorystore.New(), nil
	}
}
