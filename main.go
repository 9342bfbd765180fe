package main

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/rsvblog/config"
	"github.com/cppla/rsvblog/events"
	"github.com/cppla/rsvblog/models"
	"github.com/cppla/rsvblog/repository"
	"github.com/cppla/rsvblog/routes"
	"github.com/cppla/rsvblog/services"
	"github.com/cppla/rsvblog/storage"
	"github.com/cppla/rsvblog/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(models.All()...)
	seedAdmins(db, cfg.App.AdminPassword)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// counts cached by an earlier run may predate changes made while the server was down
	services.NewLikeCounter().Reset(ctx)

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		utils.Sugar.Fatalf("storage init failed: %v", err)
	}
	publisher := events.New(cfg.Kafka, utils.Logger.Named("events"))

	r := routes.SetupRouter(cfg, routes.Deps{DB: db, Store: store, Publisher: publisher})

	// Remove staged uploads that were never moved into the store
	maxAge := time.Duration(cfg.Storage.StagingMaxAgeMins) * time.Minute
	utils.StartStagingCleaner(ctx, cfg.Storage.TempDir, maxAge, 5*time.Minute)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.App.Port)
	err = utils.GraceServer(":"+cfg.App.Port, r, cancel, func() {
		if err := publisher.Close(); err != nil {
			utils.Logger.Warn("event publisher close failed", zap.Error(err))
		}
	})
	if err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// seedAdmins makes sure the privileged usernames belong to accounts created here, never to a public join.
func seedAdmins(db *gorm.DB, password string) {
	var created int
	err := repository.Transaction(context.Background(), db, func(uow *repository.UnitOfWork) error {
		var err error
		created, err = services.NewMemberService().EnsureAdmins(uow, password)
		return err
	})
	if err != nil {
		utils.Sugar.Fatalf("seed admin accounts failed: %v", err)
	}
	if created > 0 && password == "" {
		utils.Sugar.Warnf("created %d admin accounts without ADMIN_PASSWORD; they cannot log in", created)
	}
}
