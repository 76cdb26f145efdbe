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
		log.Println("creating listings table...")
		return mghelper.CreateSchema(ctx, db, &dao.ListingDao{})
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping listings table...")
		return mghelper.DropTables(ctx, db, &dao.ListingDao{})
	})
}
