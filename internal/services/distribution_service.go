package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "domira/internal/errors"
	"domira/internal/models"
	"domira/internal/pagination"
)

var oneHundred = decimal.NewFromInt(100)

// distributionService implements the rental-income distribution engine.
// The calculator is a pure function; only the per-property trigger touches
// the database and the holder source.
type distributionService struct {
	db         *gorm.DB
	properties PropertyServicer
	holders    HolderSource
}

// NewDistributionService creates a new DistributionServicer. holders may be
// nil when no on-chain holder source is configured; callers must then supply
// snapshots explicitly.
func NewDistributionService(db *gorm.DB, properties PropertyServicer, holders HolderSource) DistributionServicer {
	return &distributionService{db: db, properties: properties, holders: holders}
}

// ComputeDistribution turns one period's gross income into a reconciled
// pro-rata payout list.
//
// fee = gross * fee% / 100, net = gross - fee, perFraction = net / total.
// Each payout is rounded half-up to 2 decimal places independently; the
// residual against round(net, 2) is reported in the summary. Payouts are
// sorted by amount descending, ties keeping input order.
func (s *distributionService) ComputeDistribution(
	totalFractions int64,
	managementFeePercent, grossIncome decimal.Decimal,
	holders []Holder,
) (*DistributionReport, error) {
	if totalFractions <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Total fractions must be positive")
	}
	if grossIncome.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Gross income must not be negative")
	}
	if managementFeePercent.IsNegative() || managementFeePercent.GreaterThan(oneHundred) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Management fee percent must be within [0, 100]")
	}
	for _, h := range holders {
		if h.Fractions < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Holder fractions must not be negative")
		}
	}

	total := decimal.NewFromInt(totalFractions)
	fee := grossIncome.Mul(managementFeePercent).Div(oneHundred)
	net := grossIncome.Sub(fee)
	perFraction := net.Div(total)

	payouts := make([]models.Payout, 0, len(holders))
	distributed := decimal.Zero
	for _, h := range holders {
		fractions := decimal.NewFromInt(h.Fractions)
		amount := fractions.Mul(perFraction).Round(2)
		distributed = distributed.Add(amount)
		payouts = append(payouts, models.Payout{
			WalletAddress: h.WalletAddress,
			Fractions:     h.Fractions,
			Percentage:    fractions.Div(total).Mul(oneHundred).Round(2),
			Amount:        amount,
		})
	}

	sort.SliceStable(payouts, func(i, j int) bool {
		return payouts[i].Amount.GreaterThan(payouts[j].Amount)
	})

	return &DistributionReport{
		GeneratedAt:          time.Now().UTC(),
		GrossIncome:          grossIncome.Round(2),
		ManagementFeePercent: managementFeePercent,
		ManagementFee:        fee.Round(2),
		NetIncome:            net.Round(2),
		IncomePerFraction:    perFraction.Round(4),
		TotalFractions:       totalFractions,
		HolderCount:          len(payouts),
		TotalDistributed:     distributed,
		Residual:             net.Round(2).Sub(distributed),
		Payouts:              payouts,
	}, nil
}

// DistributeForProperty computes and persists a distribution report for one
// property and period. The holder snapshot comes from the request when
// supplied; otherwise from the configured on-chain holder source. The
// snapshot is obtained before computation, never inside it.
func (s *distributionService) DistributeForProperty(
	ctx context.Context,
	propertyID, period string,
	grossOverride *decimal.Decimal,
	holders []Holder,
) (*DistributionReport, error) {
	property, err := s.properties.GetPropertyByID(propertyID)
	if err != nil {
		return nil, err
	}

	gross := property.MonthlyRent
	if grossOverride != nil {
		gross = *grossOverride
	}

	if holders == nil {
		if s.holders == nil || property.TokenID == nil {
			return nil, apperrors.ErrNoHolderSnapshot
		}
		holders, err = s.holders.HoldersOf(ctx, *property.TokenID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrNoHolderSnapshot, err)
		}
	}

	report, err := s.ComputeDistribution(property.TotalFractions, property.ManagementFeePercent, gross, holders)
	if err != nil {
		return nil, err
	}
	report.PropertyID = property.ID
	report.PropertyName = property.Name
	report.Period = period

	record := &models.DistributionRecord{
		PropertyID:           property.ID,
		Period:               period,
		GrossIncome:          report.GrossIncome,
		ManagementFeePercent: report.ManagementFeePercent,
		ManagementFee:        report.ManagementFee,
		NetIncome:            report.NetIncome,
		IncomePerFraction:    report.IncomePerFraction,
		TotalFractions:       report.TotalFractions,
		HolderCount:          report.HolderCount,
		TotalDistributed:     report.TotalDistributed,
		Residual:             report.Residual,
		Payouts:              report.Payouts,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return report, nil
}

// ListDistributions returns persisted distribution records for a property,
// newest first.
func (s *distributionService) ListDistributions(propertyID string, page pagination.PageRequest) (*pagination.PageResponse[models.DistributionRecord], error) {
	if _, err := s.properties.GetPropertyByID(propertyID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.DistributionRecord{}).Where("property_id = ?", propertyID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.DistributionRecord
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}
