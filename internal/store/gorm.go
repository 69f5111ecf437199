package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/ttrpg-session-backend/internal/campaign"
)

// GormStore persists campaign aggregates to Postgres. Each save replaces
// the whole aggregate in one transaction, so readers never see a roster
// from one mutation and an encounter from another.
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&campaignRecord{}, &characterRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db, log: log.Named("store")}, nil
}

func (s *GormStore) LoadCampaignAggregate(ctx context.Context, id string) (campaign.State, error) {
	var rec campaignRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return campaign.State{}, fmt.Errorf("%w: campaign %q", campaign.ErrNotFound, id)
	}
	if err != nil {
		return campaign.State{}, fmt.Errorf("load campaign %q: %w", id, err)
	}

	var chars []characterRecord
	if err := s.db.WithContext(ctx).Where("campaign_id = ?", id).Order("id").Find(&chars).Error; err != nil {
		return campaign.State{}, fmt.Errorf("load characters for %q: %w", id, err)
	}
	return decodeAggregate(rec, chars)
}

func (s *GormStore) SaveCampaignAggregate(ctx context.Context, state campaign.State) error {
	rec, chars, err := encodeAggregate(state)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("campaign_id = ?", state.CampaignID).Delete(&characterRecord{}).Error; err != nil {
			return err
		}
		if len(chars) == 0 {
			return nil
		}
		return tx.Create(&chars).Error
	})
	if err != nil {
		return fmt.Errorf("save campaign %q: %w", state.CampaignID, err)
	}
	return nil
}
