package services

import (
	"context"
	"errors"

	"auction-harvester/config"
	"auction-harvester/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAuctionNotFound = errors.New("auction not found")
)

var assetColumns = []string{
	"category", "description", "registry_id", "cadastral_reference", "address",
	"postal_code", "locality", "province", "possession_status", "visitable",
}

// AuctionRepository is the storage contract used by the harvest pipeline and
// the read API.
type AuctionRepository struct {
	db *gorm.DB
}

func NewAuctionRepository(db *gorm.DB) *AuctionRepository {
	if db == nil {
		db = config.DB
	}
	return &AuctionRepository{db: db}
}

func (r *AuctionRepository) Exists(ctx context.Context, identity string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Auction{}).
		Where("identity = ?", identity).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpsertAuction inserts the auction or, when the identity exists, refreshes
// its detail columns.
func (r *AuctionRepository) UpsertAuction(ctx context.Context, auction *models.Auction) error {
	if auction == nil {
		return errors.New("auction is nil")
	}
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}},
			DoUpdates: clause.AssignmentColumns(models.DetailColumns),
		}).Create(auction).Error
}

func (r *AuctionRepository) InsertAsset(ctx context.Context, asset *models.Asset) error {
	if asset == nil {
		return errors.New("asset is nil")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "auction_identity"}},
		DoUpdates: clause.AssignmentColumns(assetColumns),
	}).Create(asset).Error
}

// SaveHarvested writes an upgraded auction and its asset in one transaction.
func (r *AuctionRepository) SaveHarvested(ctx context.Context, auction *models.Auction) error {
	if auction == nil {
		return errors.New("auction is nil")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &AuctionRepository{db: tx}
		if err := txRepo.UpsertAuction(ctx, auction); err != nil {
			return err
		}
		if auction.Asset == nil {
			return nil
		}
		auction.Asset.AuctionIdentity = auction.Identity
		return txRepo.InsertAsset(ctx, auction.Asset)
	})
}

// ListAuctions returns auctions with their asset, latest end date first and
// undated auctions last. A non-positive limit returns every row.
func (r *AuctionRepository) ListAuctions(ctx context.Context, limit, offset int) ([]models.Auction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Auction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.db.WithContext(ctx).
		Preload("Asset").
		Order("CASE WHEN end_date IS NULL THEN 1 ELSE 0 END").
		Order("end_date DESC").
		Order("identity ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	var auctions []models.Auction
	if err := q.Find(&auctions).Error; err != nil {
		return nil, 0, err
	}
	return auctions, total, nil
}

// GetAuctionWithAsset returns nil, nil when the identity is unknown.
func (r *AuctionRepository) GetAuctionWithAsset(ctx context.Context, identity string) (*models.Auction, error) {
	var auction models.Auction
	err := r.db.WithContext(ctx).Preload("Asset").Where("identity = ?", identity).First(&auction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auction, nil
}

// DeleteAuction removes an auction together with its asset.
func (r *AuctionRepository) DeleteAuction(ctx context.Context, identity string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("auction_identity = ?", identity).Delete(&models.Asset{}).Error; err != nil {
			return err
		}
		res := tx.Where("identity = ?", identity).Delete(&models.Auction{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAuctionNotFound
		}
		return nil
	})
}

func (r *AuctionRepository) ListRecentRuns(ctx context.Context, n int) ([]models.HarvestRun, error) {
	return NewHarvestRunService(r.db).Recent(ctx, n)
}
