package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dobashik/cashflow-maker-web/internal/csvimport"
	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/portfolio"
)

// holdingValueColumns are the columns an append-mode upsert rewrites on an
// existing row. Identity columns are never updated.
var holdingValueColumns = []string{
	"name", "quantity", "price", "acquisition_price", "total_gain_loss",
	"dividend_per_share", "dividend_months", "fiscal_year_month", "sector",
	"account_type", "ir_rank", "ir_score", "ir_detail", "ir_flag", "ir_date",
	"updated_at",
}

// importService reconciles import batches with persisted holdings.
type importService struct {
	db         *gorm.DB
	securities SecurityServicer
}

// NewImportService creates a new ImportServicer.
func NewImportService(db *gorm.DB, securities SecurityServicer) ImportServicer {
	return &importService{db: db, securities: securities}
}

// ImportBatch writes records for (ownerID, source). Replace mode swaps the
// owner's rows for the source with the batch; append mode merges the batch
// into them, so importing the same batch twice in append mode doubles the
// quantities.
func (s *importService) ImportBatch(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, records []models.Holding) (*ImportResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if _, ok := models.ParseSource(string(source)); !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown source broker")
	}
	if mode == "" {
		mode = models.ImportModeReplace
	}
	if mode != models.ImportModeReplace && mode != models.ImportModeAppend {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Import mode must be replace or append")
	}

	result := &ImportResult{OwnerID: ownerID, Source: source, Mode: mode, NewSecurities: []string{}}
	if len(records) == 0 {
		result.Success = true
		result.Message = "No rows to import"
		return result, nil
	}

	log := logger.Get().With("owner_id", ownerID, "source", source, "mode", mode)

	incoming := make([]models.Holding, 0, len(records))
	for _, r := range records {
		h, ok := prepareRecord(r, ownerID, source)
		if !ok {
			result.Skipped++
			continue
		}
		incoming = append(incoming, h)
	}
	if result.Skipped > 0 {
		log.Warnw("Dropped rows with implausible codes", "skipped", result.Skipped)
	}
	if len(incoming) == 0 {
		result.Success = true
		result.Message = fmt.Sprintf("No rows to import (%d skipped)", result.Skipped)
		return result, nil
	}

	db := s.db.WithContext(ctx)
	batch := make([]models.Holding, 0, len(incoming))
	if mode == models.ImportModeAppend {
		var existing []models.Holding
		if err := db.Where("owner_id = ? AND source = ?", ownerID, source).Order("created_at ASC").Find(&existing).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrExistingFetch, err)
		}
		batch = append(batch, existing...)
	}
	batch = append(batch, incoming...)

	codes := make([]string, 0, len(batch))
	for _, h := range batch {
		codes = append(codes, h.Code)
	}
	newCodes, err := s.securities.RegisterNew(ctx, codes)
	if err != nil {
		log.Errorw("Master registration failed, aborting import", "error", err)
		return nil, err
	}

	merged := portfolio.Aggregate(batch)
	for i := range merged {
		merged[i].OwnerID = ownerID
		merged[i].Source = source
		merged[i].UpdatedAt = time.Time{}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if mode == models.ImportModeReplace {
			if err := tx.Where("owner_id = ? AND source = ?", ownerID, source).Delete(&models.Holding{}).Error; err != nil {
				return fmt.Errorf("deleting previous rows: %w", err)
			}
			return tx.CreateInBatches(&merged, queryChunk).Error
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(holdingValueColumns),
		}).CreateInBatches(&merged, queryChunk).Error
	})
	if err != nil {
		log.Errorw("Holdings write failed", "rows", len(merged), "error", err)
		return nil, apperrors.WithCause(apperrors.ErrHoldingsWrite, err)
	}

	if newCodes != nil {
		result.NewSecurities = newCodes
	}
	result.Success = true
	result.Imported = len(merged)
	result.Message = fmt.Sprintf("Imported %d holdings from %s", len(merged), source)
	log.Infow("Import complete", "raw_rows", len(records), "stored_rows", len(merged), "new_securities", len(newCodes))
	return result, nil
}

// prepareRecord scopes an incoming record to the batch and drops any row
// identity it carried, so only persisted rows keep theirs through the merge.
// It reports false for a code that is not a plausible listing code.
func prepareRecord(r models.Holding, ownerID string, source models.Source) (models.Holding, bool) {
	r.Code = csvimport.NormalizeCode(r.Code)
	if !csvimport.PlausibleCode(r.Code) {
		return r, false
	}
	r.ID = ""
	r.CreatedAt = time.Time{}
	r.UpdatedAt = time.Time{}
	r.OwnerID = ownerID
	r.Source = source
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		r.Name = r.Code
	}
	r.Quantity = csvimport.NonNegative(r.Quantity)
	r.Price = csvimport.NonNegative(r.Price)
	r.AcquisitionPrice = csvimport.NonNegative(r.AcquisitionPrice)
	r.DividendPerShare = csvimport.NonNegative(r.DividendPerShare)
	return r, true
}

// ImportFile decodes and parses a broker export, then imports it. An empty
// source is detected from the header.
func (s *importService) ImportFile(ctx context.Context, ownerID string, source models.Source, mode models.ImportMode, raw []byte) (*ImportResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	decoded := csvimport.Decode(raw)
	if source == "" {
		detected, ok := csvimport.SourceForFormat(csvimport.DetectFormat(decoded.Text))
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrNoImportableRows, "File format was not recognized")
		}
		source = detected
	}

	records := csvimport.ParseHoldings(source, decoded.Text)
	logger.Get().Infow("Parsed holdings file",
		"owner_id", ownerID, "source", source, "encoding", decoded.Encoding, "bytes", len(raw), "rows", len(records))
	if len(records) == 0 {
		return nil, apperrors.ErrNoImportableRows
	}
	return s.ImportBatch(ctx, ownerID, source, mode, records)
}

// ImportAnalysis parses an analyst-rating export and applies it.
func (s *importService) ImportAnalysis(ctx context.Context, ownerID string, raw []byte) (*AnalysisResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	updates := csvimport.ParseAnalysis(csvimport.Decode(raw).Text)
	if len(updates) == 0 {
		return nil, apperrors.ErrNoImportableRows
	}
	return s.UpdateAnalysis(ctx, ownerID, updates)
}

// UpdateAnalysis writes analyst fields to every holding of the owner with a
// matching code, whatever its source.
func (s *importService) UpdateAnalysis(ctx context.Context, ownerID string, updates []models.AnalystUpdate) (*AnalysisResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if len(updates) == 0 {
		return &AnalysisResult{Success: true, Message: "No analysis rows to apply"}, nil
	}

	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&models.Holding{}).
				Where("owner_id = ? AND code = ?", ownerID, strings.TrimSpace(u.Code)).
				Updates(map[string]interface{}{
					"ir_rank":   u.Rank,
					"ir_score":  u.Score,
					"ir_detail": u.Detail,
					"ir_flag":   u.Flag,
					"ir_date":   u.Date,
				})
			if res.Error != nil {
				return res.Error
			}
			updated += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrHoldingsWrite, err)
	}

	return &AnalysisResult{
		Success: true,
		Message: fmt.Sprintf("Applied analysis to %d holdings", updated),
		Parsed:  len(updates),
		Updated: updated,
	}, nil
}
