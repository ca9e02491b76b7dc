package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerRepository implements the LedgerStore interface against the legacy
// fallback ledger. The ledger predates the structured schema: each row is a
// fixed-order positional array of text columns.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GORM ledger repository
func NewGormLedgerRepository(db *gorm.DB) repository.LedgerStore {
	return &GormLedgerRepository{
		db: db,
	}
}

// LedgerRow GORM model for database mapping
type LedgerRow struct {
	RequestID string         `gorm:"column:request_id;primaryKey"`
	Cols      pq.StringArray `gorm:"column:cols;type:text[]"`
	UpdatedAt time.Time
}

// TableName overrides the default table name
func (LedgerRow) TableName() string {
	return "request_ledger"
}

// Fixed column order of the legacy ledger. New columns may only be appended.
const (
	colRequestID = iota
	colCustomerRef
	colElectricianRef
	colServiceType
	colUrgency
	colPreferredDate
	colPreferredSlot
	colIssueDetail
	colStatus
	colLatitude
	colLongitude
	colRadiusKm
	colCustomerName
	colCustomerPhone
	colAddress
	colCity
	colPincode
	colElectricianName
	colElectricianPhone
	colElectricianCity
	colRating
	colReviewComment
	colCreatedAt
	colUpdatedAt
	colCompletedAt

	ledgerColumnCount
)

// Upsert writes a request as a positional ledger row
func (r *GormLedgerRepository) Upsert(ctx context.Context, req *entity.ServiceRequest) error {
	row := LedgerRow{
		RequestID: req.RequestID,
		Cols:      encodeLedgerRow(req),
		UpdatedAt: req.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		UpdateAll: true,
	}).Create(&row)

	return result.Error
}

// FindByID finds a ledger row by request id, returning (nil, nil) on a miss
func (r *GormLedgerRepository) FindByID(ctx context.Context, requestID string) (*entity.ServiceRequest, error) {
	var row LedgerRow
	result := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return DecodeLedgerRow(row.RequestID, row.Cols), nil
}

// All returns every ledger row, used by degraded list reads and the backfill
// sweep
func (r *GormLedgerRepository) All(ctx context.Context) ([]*entity.ServiceRequest, error) {
	var rows []LedgerRow
	result := r.db.WithContext(ctx).Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	reqs := make([]*entity.ServiceRequest, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, DecodeLedgerRow(row.RequestID, row.Cols))
	}
	return reqs, nil
}

func encodeLedgerRow(req *entity.ServiceRequest) []string {
	cols := make([]string, ledgerColumnCount)
	cols[colRequestID] = req.RequestID
	cols[colCustomerRef] = req.CustomerRef
	cols[colElectricianRef] = string(req.Assignment)
	cols[colServiceType] = req.ServiceType
	cols[colUrgency] = req.Urgency
	cols[colPreferredDate] = req.PreferredDate
	cols[colPreferredSlot] = req.PreferredSlot
	cols[colIssueDetail] = req.IssueDetail
	cols[colStatus] = string(req.Status)
	cols[colLatitude] = encodeFloat(req.Latitude)
	cols[colLongitude] = encodeFloat(req.Longitude)
	if req.RadiusKm != 0 {
		cols[colRadiusKm] = strconv.FormatFloat(req.RadiusKm, 'f', -1, 64)
	}
	cols[colCustomerName] = req.CustomerName
	cols[colCustomerPhone] = req.CustomerPhone
	cols[colAddress] = req.Address
	cols[colCity] = req.City
	cols[colPincode] = req.Pincode
	cols[colElectricianName] = req.ElectricianName
	cols[colElectricianPhone] = req.ElectricianPhone
	cols[colElectricianCity] = req.ElectricianCity
	if req.Rating != 0 {
		cols[colRating] = strconv.Itoa(req.Rating)
	}
	cols[colReviewComment] = req.ReviewComment
	cols[colCreatedAt] = encodeTime(req.CreatedAt)
	cols[colUpdatedAt] = encodeTime(req.UpdatedAt)
	if req.CompletedAt != nil {
		cols[colCompletedAt] = encodeTime(*req.CompletedAt)
	}
	return cols
}

// DecodeLedgerRow maps a positional row back onto the structured model.
// Historical rows may be shorter than the current column count or hold
// malformed values; missing or bad fields decode to zero values, never an
// error.
func DecodeLedgerRow(requestID string, cols []string) *entity.ServiceRequest {
	req := &entity.ServiceRequest{
		RequestID:        ledgerCol(cols, colRequestID),
		CustomerRef:      ledgerCol(cols, colCustomerRef),
		Assignment:       entity.Assignment(ledgerCol(cols, colElectricianRef)),
		ServiceType:      ledgerCol(cols, colServiceType),
		Urgency:          ledgerCol(cols, colUrgency),
		PreferredDate:    ledgerCol(cols, colPreferredDate),
		PreferredSlot:    ledgerCol(cols, colPreferredSlot),
		IssueDetail:      ledgerCol(cols, colIssueDetail),
		Status:           entity.Status(ledgerCol(cols, colStatus)),
		Latitude:         decodeFloat(ledgerCol(cols, colLatitude)),
		Longitude:        decodeFloat(ledgerCol(cols, colLongitude)),
		CustomerName:     ledgerCol(cols, colCustomerName),
		CustomerPhone:    ledgerCol(cols, colCustomerPhone),
		Address:          ledgerCol(cols, colAddress),
		City:             ledgerCol(cols, colCity),
		Pincode:          ledgerCol(cols, colPincode),
		ElectricianName:  ledgerCol(cols, colElectricianName),
		ElectricianPhone: ledgerCol(cols, colElectricianPhone),
		ElectricianCity:  ledgerCol(cols, colElectricianCity),
		ReviewComment:    ledgerCol(cols, colReviewComment),
		CreatedAt:        decodeTime(ledgerCol(cols, colCreatedAt)),
		UpdatedAt:        decodeTime(ledgerCol(cols, colUpdatedAt)),
	}

	if req.RequestID == "" {
		req.RequestID = requestID
	}
	if radius := decodeFloat(ledgerCol(cols, colRadiusKm)); radius != nil {
		req.RadiusKm = *radius
	}
	if rating, err := strconv.Atoi(ledgerCol(cols, colRating)); err == nil {
		req.Rating = rating
	}
	if completed := decodeTime(ledgerCol(cols, colCompletedAt)); !completed.IsZero() {
		req.CompletedAt = &completed
	}
	return req
}

func ledgerCol(cols []string, i int) string {
	if i < 0 || i >= len(cols) {
		return ""
	}
	return cols[i]
}

func encodeFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func decodeFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
