package indexerdb

import (
	"context"
	"log"

	"github.com/OriginProtocol/bridge-server/pkg/db/dao"
	mghelper "github.com/OriginProtocol/bridge-server/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating event_tracker table...")
		return mghelper.CreateSchema(ctx, db, &dao.EventTrackerDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping event_tracker table...")
		return mghelper.DropTables(ctx, db, &dao.EventTrackerDao{})
	})
}
