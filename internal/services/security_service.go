package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/logger"
	"github.com/dobashik/cashflow-maker-web/internal/mastercsv"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/portfolio"
)

const (
	// queryChunk bounds the size of IN lists and batched inserts.
	queryChunk = 500
	// metadataChunk is the batch size of the master metadata upsert.
	metadataChunk = 1000
)

// securityService manages the shared master security table.
type securityService struct {
	db     *gorm.DB
	master MasterDirectory
}

// NewSecurityService creates a new SecurityServicer.
func NewSecurityService(db *gorm.DB, master MasterDirectory) SecurityServicer {
	return &securityService{db: db, master: master}
}

// RegisterNew inserts master rows for codes not yet in the table, with name
// and sector from the master file when available. Existing rows are never
// touched. It returns the codes that were unseen.
func (s *securityService) RegisterNew(ctx context.Context, codes []string) ([]string, error) {
	codes = uniqueCodes(codes)
	if len(codes) == 0 {
		return nil, nil
	}
	db := s.db.WithContext(ctx)

	known := make(map[string]bool, len(codes))
	for _, part := range chunkStrings(codes, queryChunk) {
		var existing []string
		if err := db.Model(&models.Security{}).Where("code IN ?", part).Pluck("code", &existing).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrMasterRegistration, err)
		}
		for _, c := range existing {
			known[c] = true
		}
	}

	var unseen []string
	for _, c := range codes {
		if !known[c] {
			unseen = append(unseen, c)
		}
	}
	if len(unseen) == 0 {
		return nil, nil
	}

	entries := s.lookupMaster(ctx, unseen)
	rows := make([]models.Security, 0, len(unseen))
	for _, c := range unseen {
		row := models.Security{Code: c}
		if e, ok := entries[c]; ok {
			row.Name = optionalString(e.Name)
			row.Sector = optionalString(e.Sector)
		}
		rows = append(rows, row)
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&rows, queryChunk).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMasterRegistration, err)
	}

	logger.Get().Infow("Registered new securities", "count", len(unseen), "with_metadata", len(entries))
	return unseen, nil
}

// lookupMaster resolves codes, logging and returning nothing on failure.
func (s *securityService) lookupMaster(ctx context.Context, codes []string) map[string]mastercsv.Entry {
	if s.master == nil {
		return nil
	}
	found, err := s.master.Lookup(ctx, codes)
	if err != nil {
		logger.Get().Warnw("Master lookup failed, registering securities without metadata",
			"codes", len(codes), "error", err)
		return nil
	}
	return found
}

// RefreshMetadata upserts name and sector for every master file row. Price
// columns are never written; blank master cells keep the stored value.
func (s *securityService) RefreshMetadata(ctx context.Context) (*MetadataResult, error) {
	if s.master == nil {
		return nil, apperrors.ErrMasterDataLoad
	}
	entries, err := s.master.All(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMasterDataLoad, err)
	}
	if len(entries) == 0 {
		return &MetadataResult{Success: true, Message: "Master file has no rows"}, nil
	}

	rows := make([]models.Security, 0, len(entries))
	for code, e := range entries {
		rows = append(rows, models.Security{Code: code, Name: optionalString(e.Name), Sector: optionalString(e.Sector)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	upsert := clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":       gorm.Expr("COALESCE(excluded.name, securities.name)"),
			"sector":     gorm.Expr("COALESCE(excluded.sector, securities.sector)"),
			"updated_at": time.Now(),
		}),
	}

	db := s.db.WithContext(ctx)
	written := 0
	for start := 0; start < len(rows); start += metadataChunk {
		end := min(start+metadataChunk, len(rows))
		batch := rows[start:end]
		if err := db.Clauses(upsert).Create(&batch).Error; err != nil {
			logger.Get().Errorw("Master metadata chunk failed", "offset", start, "error", err)
			return &MetadataResult{
				Success: false,
				Message: fmt.Sprintf("Updated %d of %d securities before a write failed", written, len(rows)),
				Updated: written,
			}, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		written += len(batch)
	}

	return &MetadataResult{Success: true, Message: fmt.Sprintf("Updated metadata for %d securities", written), Updated: written}, nil
}

// UpdateSectors fills the sector of the owner's holdings that have none, and
// of their master rows, from the master file.
func (s *securityService) UpdateSectors(ctx context.Context, ownerID string) (*MetadataResult, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	db := s.db.WithContext(ctx)

	var codes []string
	err := db.Model(&models.Holding{}).
		Where("owner_id = ?", ownerID).
		Where("(sector IS NULL OR sector = '' OR sector = ?)", portfolio.UnknownSector).
		Distinct().Pluck("code", &codes).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(codes) == 0 {
		return &MetadataResult{Success: true, Message: "Sectors are already up to date"}, nil
	}

	if s.master == nil {
		return nil, apperrors.ErrMasterDataLoad
	}
	entries, err := s.master.Lookup(ctx, codes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMasterDataLoad, err)
	}

	updated := 0
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, code := range codes {
			e, ok := entries[code]
			if !ok || e.Sector == "" {
				continue
			}
			if err := tx.Model(&models.Security{}).Where("code = ?", code).Update("sector", e.Sector).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Holding{}).Where("owner_id = ? AND code = ?", ownerID, code).
				Update("sector", e.Sector).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &MetadataResult{Success: true, Message: fmt.Sprintf("Updated sector for %d securities", updated), Updated: updated}, nil
}

var securitySortColumns = map[string]string{
	"code":         "code",
	"name":         "name",
	"price":        "price",
	"last_updated": "last_updated",
}

// ListSecurities returns a paginated list of master securities ordered by code.
func (s *securityService) ListSecurities(ctx context.Context, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Security], error) {
	page.Defaults()

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Security{})
		if search = strings.TrimSpace(search); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			q = q.Where("(LOWER(code) LIKE ? OR LOWER(name) LIKE ?)", like, like)
		}
		return q
	}

	var totalItems int64
	if err := query().Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var securities []models.Security
	order := page.OrderClause(securitySortColumns, "code ASC")
	if err := query().Order(order).Scopes(pagination.Paginate(page)).Find(&securities).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(securities, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetSecurity returns the master row for code.
func (s *securityService) GetSecurity(ctx context.Context, code string) (*models.Security, error) {
	var security models.Security
	if err := s.db.WithContext(ctx).First(&security, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSecurityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &security, nil
}

func optionalString(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

// uniqueCodes trims, drops blanks and de-duplicates keeping first-seen order.
func uniqueCodes(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func chunkStrings(items []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(items); i += size {
		out = append(out, items[i:min(i+size, len(items))])
	}
	return out
}
