package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/models"
)

const (
	// retryStaleness selects the rows a retry pass refetches. It sits just
	// under the scheduler cadence so every pass picks up the previous
	// pass's misses.
	retryStaleness = 25 * time.Minute
	// zeroOverwriteAge is how old a stored price must be before a missing
	// result may blank it.
	zeroOverwriteAge = time.Hour
)

// priceService merges fetched prices into the master security table.
type priceService struct {
	db      *gorm.DB
	fetcher PriceFetcher
	now     func() time.Time
	log     *zap.SugaredLogger
}

// NewPriceService creates a new PriceServicer.
func NewPriceService(db *gorm.DB, fetcher PriceFetcher) PriceServicer {
	return &priceService{
		db:      db,
		fetcher: fetcher,
		now:     time.Now,
		log:     logger.Named("prices"),
	}
}

// RefreshForOwner refreshes every security the owner currently holds.
func (s *priceService) RefreshForOwner(ctx context.Context, ownerID string) (*RefreshResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	var codes []string
	if err := s.db.WithContext(ctx).Model(&models.Holding{}).
		Where("owner_id = ?", ownerID).
		Distinct().Order("code ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPriceRefresh, err)
	}
	return s.refresh(ctx, codes, 0)
}

// RefreshForNewSecurities fetches prices for the candidates that have no
// known price yet. Candidates already priced count as found.
func (s *priceService) RefreshForNewSecurities(ctx context.Context, ownerID string, candidates []string) (*RefreshResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	candidates = uniqueCodes(candidates)
	if len(candidates) == 0 {
		return &RefreshResult{Success: true, Message: "No new securities to price"}, nil
	}

	priced := make(map[string]bool, len(candidates))
	for _, part := range chunkStrings(candidates, queryChunk) {
		var codes []string
		if err := s.db.WithContext(ctx).Model(&models.Security{}).
			Where("code IN ? AND price > 0", part).
			Pluck("code", &codes).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPriceRefresh, err)
		}
		for _, c := range codes {
			priced[c] = true
		}
	}

	var missing []string
	for _, c := range candidates {
		if !priced[c] {
			missing = append(missing, c)
		}
	}
	s.log.Infow("Pricing new securities", "owner_id", ownerID, "candidates", len(candidates), "already_priced", len(priced))
	return s.refresh(ctx, missing, len(priced))
}

// RefreshMaster is the scheduled job. Full mode targets every security,
// retry mode only those never priced or priced before the retry window.
func (s *priceService) RefreshMaster(ctx context.Context, mode models.RefreshMode) (*RefreshResult, error) {
	q := s.db.WithContext(ctx).Model(&models.Security{})
	switch mode {
	case models.RefreshModeFull:
	case models.RefreshModeRetry:
		q = q.Where("last_updated IS NULL OR last_updated < ?", s.now().Add(-retryStaleness))
	default:
		return nil, apperrors.ErrInvalidRefreshMode
	}

	var codes []string
	if err := q.Order("code ASC").Pluck("code", &codes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPriceRefresh, err)
	}
	s.log.Infow("Master price refresh", "mode", mode, "targets", len(codes))
	return s.refresh(ctx, codes, 0)
}

// refresh fetches codes and merges the result. alreadyFound is added to
// the reported found count.
func (s *priceService) refresh(ctx context.Context, codes []string, alreadyFound int) (*RefreshResult, error) {
	if len(codes) == 0 {
		return &RefreshResult{
			Success:     true,
			PricesFound: alreadyFound,
			Message:     fmt.Sprintf("Nothing to fetch, %d prices already known", alreadyFound),
		}, nil
	}

	fetched, fetchErr := s.fetcher.Fetch(ctx, codes)
	if fetched == nil {
		return nil, apperrors.Wrap(apperrors.ErrPriceRefresh, fetchErr)
	}

	// Merge whatever completed, even when ctx ended mid-fetch.
	updated, err := s.merge(context.WithoutCancel(ctx), fetched.Prices)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPriceRefresh, err)
	}
	if fetchErr != nil {
		s.log.Warnw("Price fetch interrupted", "merged", updated, "error", fetchErr)
		return nil, apperrors.Wrap(apperrors.ErrPriceRefresh, fetchErr)
	}

	found := fetched.Found() + alreadyFound
	failed := fetched.FailedCodes()
	msg := fmt.Sprintf("%d prices updated", updated)
	if failed > 0 {
		msg = fmt.Sprintf("%d prices updated, %d failed", updated, failed)
	}
	return &RefreshResult{
		Success:      true,
		Message:      msg,
		UpdatedCount: updated,
		PricesFound:  found,
		FailedCount:  failed,
	}, nil
}

// merge applies fetched prices to the securities table. A positive price
// always overwrites and stamps last_updated. A zero only blanks a stored
// price older than zeroOverwriteAge and leaves last_updated alone, so the
// row stays eligible for the next retry pass. Codes missing from prices
// belong to skipped chunks and are not touched.
func (s *priceService) merge(ctx context.Context, prices map[string]float64) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}
	now := s.now()
	cutoff := now.Add(-zeroOverwriteAge)

	codes := make([]string, 0, len(prices))
	for c := range prices {
		codes = append(codes, c)
	}
	stored := make(map[string]models.Security, len(codes))
	for _, part := range chunkStrings(uniqueCodes(codes), queryChunk) {
		var rows []models.Security
		if err := s.db.WithContext(ctx).Where("code IN ?", part).Find(&rows).Error; err != nil {
			return 0, err
		}
		for _, r := range rows {
			stored[r.Code] = r
		}
	}

	updated := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, code := range uniqueCodes(codes) {
			sec, ok := stored[code]
			if !ok {
				continue
			}
			price := prices[code]
			var changes map[string]interface{}
			switch {
			case price > 0:
				changes = map[string]interface{}{"price": price, "last_updated": now}
			case sec.StaleSince(cutoff) && sec.Price != nil && *sec.Price != 0:
				changes = map[string]interface{}{"price": 0}
			default:
				continue
			}
			if err := tx.Model(&models.Security{}).Where("code = ?", code).Updates(changes).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
