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
		log.Println("creating purchases table...")
		if err := mghelper.CreateSchema(ctx, db, &dao.PurchaseDao{}); err != nil {
			return err
		}
		// Purchases are listed per listing by the API.
		return mghelper.CreateModelIndexes(ctx, db, &dao.PurchaseDao{}, "listing_address")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping purchases table...")
		return mghelper.DropTables(ctx, db, &dao.PurchaseDao{})
	})
}
