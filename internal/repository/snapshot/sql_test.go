package snapshot

import (
	"strings"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/9Skies9/InvestLink/internal/domain/interaction"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=investlink dbname=investlink sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestDecidedQuery_SkipsUndecided(t *testing.T) {
	db := dryRunDB(t)
	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []interactRow
		return decidedQuery(tx, userToCompanyTable).Find(&rows)
	})
	if !strings.Contains(sql, "user_to_company_interact") {
		t.Errorf("wrong table: %s", sql)
	}
	if !strings.Contains(sql, "like_or_not IN (0,1)") {
		t.Errorf("expected decided filter, got: %s", sql)
	}
}

func TestProfileQueries(t *testing.T) {
	db := dryRunDB(t)
	companies := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []companyInfo
		return companyQuery(tx).Find(&rows)
	})
	if !strings.Contains(companies, `"company_info"`) || !strings.Contains(companies, "ORDER BY company_id") {
		t.Errorf("unexpected company query: %s", companies)
	}
	users := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []userInfo
		return userQuery(tx).Find(&rows)
	})
	if !strings.Contains(users, `"user_info"`) || !strings.Contains(users, "ORDER BY user_id") {
		t.Errorf("unexpected user query: %s", users)
	}
}

func TestOpenSQL_UnknownDriver(t *testing.T) {
	if _, err := OpenSQL("sqlite", "file.db"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRowConversion(t *testing.T) {
	name, fund := "Acme", "$2M"
	providers := companiesToRows([]companyInfo{{CompanyID: 3, Name: &name, FundSize: &fund}})
	if providers[0].ID != 3 || providers[0].Name != "Acme" || providers[0].Amount != "$2M" || providers[0].Description != "" {
		t.Errorf("unexpected provider row: %+v", providers[0])
	}

	minAmount := "$100k"
	seekers := usersToRows([]userInfo{{UserID: 4, CheckSizeMin: &minAmount}})
	if seekers[0].ID != 4 || seekers[0].MinAmount != "$100k" || seekers[0].MaxAmount != "" {
		t.Errorf("unexpected seeker row: %+v", seekers[0])
	}
}

func TestInteractsToRows_Orientation(t *testing.T) {
	rows := []interactRow{
		{UID: 1, CID: 10, LikeOrNot: 1},
		{UID: 2, CID: 10, LikeOrNot: -1},
		{UID: 3, CID: 11, LikeOrNot: 0},
	}

	seeker := interactsToRows(rows, true)
	if len(seeker) != 2 {
		t.Fatalf("expected 2 decided rows, got %d", len(seeker))
	}
	if seeker[0].Subject != 1 || seeker[0].Object != 10 || seeker[0].Status != interaction.StatusAccept {
		t.Errorf("unexpected seeker row: %+v", seeker[0])
	}

	provider := interactsToRows(rows, false)
	if provider[1].Subject != 11 || provider[1].Object != 3 || provider[1].Status != interaction.StatusReject {
		t.Errorf("unexpected provider row: %+v", provider[1])
	}
}
