package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Atik203/Scholar-Flow-sub001/internal/config"
	"github.com/Atik203/Scholar-Flow-sub001/internal/domain/model"
	"github.com/Atik203/Scholar-Flow-sub001/internal/infrastructure/database"
	"github.com/Atik203/Scholar-Flow-sub001/internal/logger"
)

// seedPlan is one catalog entry in the seed file
type seedPlan struct {
	Tier            string                 `yaml:"tier"`
	Interval        string                 `yaml:"interval"`
	ProviderPriceID string                 `yaml:"provider_price_id"`
	Name            string                 `yaml:"name"`
	Role            string                 `yaml:"role"`
	Features        map[string]interface{} `yaml:"features"`
	SortOrder       int                    `yaml:"sort_order"`
}

type seedFile struct {
	Plans []seedPlan `yaml:"plans"`
}

// seed-plans upserts the plan catalog from a YAML file. Price IDs come from
// the provider dashboard; the catalog is the only place they are mapped to
// tiers and roles.
func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger := logger.DefaultZapLogger()
	defer zapLogger.Sync()

	plansPath := os.Getenv("PLANS_FILE")
	if plansPath == "" {
		plansPath = "./configs/plans.yaml"
	}

	plans, err := loadPlans(plansPath)
	if err != nil {
		zapLogger.Fatal("Failed to load plan seed file",
			zap.String("path", plansPath),
			zap.Error(err))
	}

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)
	ctx := context.Background()

	for _, p := range plans {
		plan := &model.Plan{
			Code:            model.PlanCode(p.Tier, p.Interval),
			Tier:            p.Tier,
			Interval:        p.Interval,
			ProviderPriceID: p.ProviderPriceID,
			Name:            p.Name,
			Role:            p.Role,
			Features:        p.Features,
			SortOrder:       p.SortOrder,
			IsActive:        true,
		}
		if err := repos.Plan.Upsert(ctx, plan); err != nil {
			zapLogger.Fatal("Failed to upsert plan",
				zap.String("code", plan.Code),
				zap.Error(err))
		}
		zapLogger.Info("Plan seeded",
			zap.String("code", plan.Code),
			zap.String("price_id", plan.ProviderPriceID),
			zap.String("role", plan.Role))
	}

	zapLogger.Info("Plan catalog seeded", zap.Int("count", len(plans)))
}

func loadPlans(path string) ([]seedPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var file seedFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, err
	}

	for i, p := range file.Plans {
		if p.Tier == "" || p.Interval == "" || p.ProviderPriceID == "" || p.Role == "" {
			return nil, fmt.Errorf("plan %d is missing tier, interval, provider_price_id, or role", i)
		}
	}

	return file.Plans, nil
}
