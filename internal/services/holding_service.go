package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/dobashik/cashflow-maker-web/internal/errors"
	"github.com/dobashik/cashflow-maker-web/internal/models"
	"github.com/dobashik/cashflow-maker-web/internal/pagination"
	"github.com/dobashik/cashflow-maker-web/internal/portfolio"
)

var holdingSortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"quantity":   "quantity",
	"price":      "price",
	"source":     "source",
	"sector":     "sector",
	"created_at": "created_at",
}

// holdingService reads and edits an owner's persisted holdings.
type holdingService struct {
	db *gorm.DB
}

// NewHoldingService creates a new HoldingServicer.
func NewHoldingService(db *gorm.DB) HoldingServicer {
	return &holdingService{db: db}
}

// ListHoldings returns a paginated list of the owner's per-broker rows.
func (s *holdingService) ListHoldings(ctx context.Context, ownerID string, filter HoldingFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	page.Defaults()

	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Holding{}).Where("owner_id = ?", ownerID)
		if filter.Source != nil {
			q = q.Where("source = ?", *filter.Source)
		}
		if code := strings.TrimSpace(filter.Code); code != "" {
			q = q.Where("code = ?", code)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var holdings []models.Holding
	if err := query().
		Order(page.OrderClause(holdingSortColumns, "code ASC, source ASC")).
		Scopes(pagination.Paginate(page)).
		Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(holdings, page.Page, page.PageSize, total)
	return &resp, nil
}

// Positions merges the owner's rows per code, prices them from the master
// table and computes the portfolio summary.
func (s *holdingService) Positions(ctx context.Context, ownerID string) (*PositionsView, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	db := s.db.WithContext(ctx)

	var holdings []models.Holding
	if err := db.Where("owner_id = ?", ownerID).Order("code ASC, source ASC").Find(&holdings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	codes := make([]string, 0, len(holdings))
	for _, h := range holdings {
		codes = append(codes, h.Code)
	}
	securities := make(map[string]models.Security, len(codes))
	for _, part := range chunkStrings(uniqueCodes(codes), queryChunk) {
		var rows []models.Security
		if err := db.Where("code IN ?", part).Find(&rows).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, sec := range rows {
			securities[sec.Code] = sec
		}
	}

	prices := make(map[string]float64, len(securities))
	for i := range holdings {
		sec, ok := securities[holdings[i].Code]
		if !ok {
			continue
		}
		if p, ok := sec.KnownPrice(); ok {
			prices[sec.Code] = p
		}
		if holdings[i].Sector == "" && sec.Sector != nil {
			holdings[i].Sector = *sec.Sector
		}
		if holdings[i].Name == "" && sec.Name != nil {
			holdings[i].Name = *sec.Name
		}
	}

	positions := portfolio.MergePositions(holdings, prices)
	return &PositionsView{Positions: positions, Summary: portfolio.Summarize(positions)}, nil
}

// HeldCodes returns the distinct codes the owner holds.
func (s *holdingService) HeldCodes(ctx context.Context, ownerID string) ([]string, error) {
	if ownerID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	var codes []string
	if err := s.db.WithContext(ctx).Model(&models.Holding{}).
		Where("owner_id = ?", ownerID).
		Distinct().Order("code ASC").
		Pluck("code", &codes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return codes, nil
}

// DeleteAll removes every holding of the owner.
func (s *holdingService) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	if ownerID == "" {
		return 0, apperrors.ErrUnauthorized
	}
	res := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Delete(&models.Holding{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteBySource removes the owner's holdings imported from one broker.
func (s *holdingService) DeleteBySource(ctx context.Context, ownerID string, source models.Source) (int64, error) {
	if ownerID == "" {
		return 0, apperrors.ErrUnauthorized
	}
	if _, ok := models.ParseSource(string(source)); !ok {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unknown source broker")
	}
	res := s.db.WithContext(ctx).Where("owner_id = ? AND source = ?", ownerID, source).Delete(&models.Holding{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateDividend sets the hand-entered dividend fields on every row of the
// owner with the given code. It returns the number of rows changed.
func (s *holdingService) UpdateDividend(ctx context.Context, ownerID, code string, update DividendUpdate) (int64, error) {
	if ownerID == "" {
		return 0, apperrors.ErrUnauthorized
	}
	if update.DividendPerShare < 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Dividend per share must not be negative")
	}
	if fm := update.FiscalYearMonth; fm != nil && (*fm < 1 || *fm > 12) {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Fiscal year month must be between 1 and 12")
	}

	res := s.db.WithContext(ctx).Model(&models.Holding{}).
		Where("owner_id = ? AND code = ?", ownerID, strings.TrimSpace(code)).
		Updates(map[string]interface{}{
			"dividend_per_share": update.DividendPerShare,
			"dividend_months":    models.NewMonthSet(update.DividendMonths...),
			"fiscal_year_month":  update.FiscalYearMonth,
		})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.ErrHoldingNotFound
	}
	return res.RowsAffected, nil
}
