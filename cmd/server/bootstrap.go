package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentmesh/agentmesh/internal/api"
	"github.com/agentmesh/agentmesh/internal/app"
	"github.com/agentmesh/agentmesh/internal/app/maintenance"
	"github.com/agentmesh/agentmesh/internal/database"
	"github.com/agentmesh/agentmesh/internal/services"
	"github.com/agentmesh/agentmesh/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB           *gorm.DB
	AuditSvc     *services.DeletionAuditService
	CleanupSvc   *services.CleanupService
	AnonymizeSvc *services.AnonymizationService
	DeletionSvc  *services.DeletionRequestService
	Cleaner      *maintenance.Cleaner
	Router       *gin.Engine
}

// bootstrapRuntime initialises the database, lifecycle services, scheduled
// jobs, and the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.AuditSvc, err = services.NewDeletionAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	cascadeSvc, err := services.NewCascadeService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise cascade service: %w", err)
	}

	policy := cfg.Retention.RetentionPolicy()

	stack.CleanupSvc, err = services.NewCleanupService(stack.DB, stack.AuditSvc, cascadeSvc, services.CleanupConfig{Policy: policy})
	if err != nil {
		return nil, fmt.Errorf("initialise cleanup service: %w", err)
	}

	stack.AnonymizeSvc, err = services.NewAnonymizationService(stack.DB, stack.AuditSvc, services.AnonymizationConfig{Policy: policy})
	if err != nil {
		return nil, fmt.Errorf("initialise anonymization service: %w", err)
	}

	stack.DeletionSvc, err = services.NewDeletionRequestService(stack.DB, stack.AuditSvc, cascadeSvc, services.DeletionRequestConfig{Policy: policy})
	if err != nil {
		return nil, fmt.Errorf("initialise deletion service: %w", err)
	}

	if cfg.Maintenance.Enabled {
		stack.Cleaner = maintenance.NewCleaner(stack.CleanupSvc, stack.AnonymizeSvc, stack.DeletionSvc)
		if err := stack.Cleaner.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance jobs: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(stack.DB, cfg, stack.DeletionSvc)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseConfig()
	db, err := database.OpenAndMigrate(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
