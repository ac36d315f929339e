package snapshot

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/9Skies9/InvestLink/internal/domain/snapshot"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// OpenSQL connects to the system-of-record database.
func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported snapshot driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return db, nil
}

type companyInfo struct {
	CompanyID    int64   `gorm:"column:company_id;primaryKey"`
	Name         *string `gorm:"column:c_name"`
	Desc         *string `gorm:"column:c_desc"`
	Place        *string `gorm:"column:c_place"`
	FundingStage *string `gorm:"column:c_funding_stage"`
	Industry     *string `gorm:"column:c_industry"`
	FundSize     *string `gorm:"column:c_fund_size"`
}

func (companyInfo) TableName() string { return "company_info" }

type userInfo struct {
	UserID             int64   `gorm:"column:user_id;primaryKey"`
	Name               *string `gorm:"column:u_name"`
	InvestRequirements *string `gorm:"column:u_invest_requirements"`
	Places             *string `gorm:"column:u_places"`
	FundStage          *string `gorm:"column:u_fund_stage"`
	Industry           *string `gorm:"column:u_industry"`
	CheckSizeMin       *string `gorm:"column:u_check_size_min"`
	CheckSizeMax       *string `gorm:"column:u_check_size_max"`
}

func (userInfo) TableName() string { return "user_info" }

type interactRow struct {
	UID       int64 `gorm:"column:u_id"`
	CID       int64 `gorm:"column:c_id"`
	LikeOrNot int   `gorm:"column:like_or_not"`
}

// Interaction tables.
const (
	userToCompanyTable = "user_to_company_interact"
	companyToUserTable = "company_to_user_interact"
)

// SQLSource reads profiles and decided pairs through gorm.
type SQLSource struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLSource wraps an open connection.
func NewSQLSource(db *gorm.DB, logger *zap.Logger) *SQLSource {
	return &SQLSource{db: db, logger: logger}
}

// Ping checks the connection.
func (s *SQLSource) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("snapshot db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("snapshot db ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *SQLSource) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		s.logger.Warn("Failed to get snapshot db handle", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		s.logger.Warn("Failed to close snapshot db", zap.Error(err))
	}
}

// Load reads the four tables inside one read-only transaction so the snapshot is consistent.
func (s *SQLSource) Load(ctx context.Context) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var companies []companyInfo
		if err := companyQuery(tx).Find(&companies).Error; err != nil {
			return fmt.Errorf("company_info: %w", err)
		}
		var users []userInfo
		if err := userQuery(tx).Find(&users).Error; err != nil {
			return fmt.Errorf("user_info: %w", err)
		}
		var u2c, c2u []interactRow
		if err := decidedQuery(tx, userToCompanyTable).Find(&u2c).Error; err != nil {
			return fmt.Errorf("%s: %w", userToCompanyTable, err)
		}
		if err := decidedQuery(tx, companyToUserTable).Find(&c2u).Error; err != nil {
			return fmt.Errorf("%s: %w", companyToUserTable, err)
		}

		snap = snapshot.Snapshot{
			Providers:         companiesToRows(companies),
			Seekers:           usersToRows(users),
			SeekerDecisions:   interactsToRows(u2c, true),
			ProviderDecisions: interactsToRows(c2u, false),
		}
		return nil
	})
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("load sql snapshot: %w", err)
	}
	return snap, nil
}

func companyQuery(tx *gorm.DB) *gorm.DB {
	return tx.Model(&companyInfo{}).Order("company_id")
}

func userQuery(tx *gorm.DB) *gorm.DB {
	return tx.Model(&userInfo{}).Order("user_id")
}

// decidedQuery skips like_or_not = -1 and NULL.
func decidedQuery(tx *gorm.DB, table string) *gorm.DB {
	return tx.Table(table).
		Select("u_id", "c_id", "like_or_not").
		Where("like_or_not IN ?", []int{0, 1})
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func companiesToRows(in []companyInfo) []snapshot.ProviderRow {
	out := make([]snapshot.ProviderRow, len(in))
	for i, c := range in {
		out[i] = snapshot.ProviderRow{
			ID:          c.CompanyID,
			Name:        str(c.Name),
			Description: str(c.Desc),
			Categories:  str(c.Industry),
			Stage:       str(c.FundingStage),
			Locality:    str(c.Place),
			Amount:      str(c.FundSize),
		}
	}
	return out
}

func usersToRows(in []userInfo) []snapshot.SeekerRow {
	out := make([]snapshot.SeekerRow, len(in))
	for i, u := range in {
		out[i] = snapshot.SeekerRow{
			ID:          u.UserID,
			Name:        str(u.Name),
			Description: str(u.InvestRequirements),
			Categories:  str(u.Industry),
			Stages:      str(u.FundStage),
			Localities:  str(u.Places),
			MinAmount:   str(u.CheckSizeMin),
			MaxAmount:   str(u.CheckSizeMax),
		}
	}
	return out
}

// interactsToRows orients rows by subject: seekerSide means u_id decided about c_id.
func interactsToRows(in []interactRow, seekerSide bool) []snapshot.DecisionRow {
	out := make([]snapshot.DecisionRow, 0, len(in))
	for _, r := range in {
		subject, object := r.CID, r.UID
		if seekerSide {
			subject, object = r.UID, r.CID
		}
		if d, ok := snapshot.DecisionFromLikeOrNot(subject, object, r.LikeOrNot); ok {
			out = append(out, d)
		}
	}
	return out
}
