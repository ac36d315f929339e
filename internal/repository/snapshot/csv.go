package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/domain/snapshot"
)

// File names inside a CSV snapshot directory.
const (
	CompanyInfoFile           = "company_info.csv"
	UserInfoFile              = "user_info.csv"
	UserToCompanyInteractFile = "user_to_company_interact.csv"
	CompanyToUserInteractFile = "company_to_user_interact.csv"
)

// CSVSource reads the initialization CSV exports.
// Profile files are required; interaction files are optional.
type CSVSource struct {
	dir    string
	logger *zap.Logger
}

// NewCSVSource creates a source over dir.
func NewCSVSource(dir string, logger *zap.Logger) *CSVSource {
	return &CSVSource{dir: dir, logger: logger}
}

// Load reads all four files. Any malformed profile row fails the whole load.
func (s *CSVSource) Load(ctx context.Context) (snapshot.Snapshot, error) {
	var snap snapshot.Snapshot

	companies, err := readTable(filepath.Join(s.dir, CompanyInfoFile))
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if snap.Providers, err = providerRows(companies); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("%s: %w", CompanyInfoFile, err)
	}

	if err := ctx.Err(); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("load csv snapshot: %w", err)
	}

	users, err := readTable(filepath.Join(s.dir, UserInfoFile))
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	if snap.Seekers, err = seekerRows(users); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("%s: %w", UserInfoFile, err)
	}

	if snap.SeekerDecisions, err = s.decisions(UserToCompanyInteractFile, "u_id", "c_id"); err != nil {
		return snapshot.Snapshot{}, err
	}
	if snap.ProviderDecisions, err = s.decisions(CompanyToUserInteractFile, "c_id", "u_id"); err != nil {
		return snapshot.Snapshot{}, err
	}

	s.logger.Debug("CSV snapshot read",
		zap.String("dir", s.dir),
		zap.Int("providers", len(snap.Providers)),
		zap.Int("seekers", len(snap.Seekers)),
		zap.Int("seeker_decisions", len(snap.SeekerDecisions)),
		zap.Int("provider_decisions", len(snap.ProviderDecisions)),
	)
	return snap, nil
}

func (s *CSVSource) decisions(file, subjectCol, objectCol string) ([]snapshot.DecisionRow, error) {
	t, err := readTable(filepath.Join(s.dir, file))
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("Interaction file absent, no decisions loaded", zap.String("file", file))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := decisionRows(t, subjectCol, objectCol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return rows, nil
}

// table is a CSV file keyed by cleaned header names.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	t := &table{cols: map[string]int{}}
	if len(records) == 0 {
		return t, nil
	}
	for i, h := range records[0] {
		t.cols[cleanHeader(h)] = i
	}
	t.rows = records[1:]
	return t, nil
}

func cleanHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func (t *table) has(names ...string) bool {
	for _, n := range names {
		if _, ok := t.cols[cleanHeader(n)]; ok {
			return true
		}
	}
	return false
}

// get returns the first present column among names.
func (t *table) get(row []string, names ...string) string {
	for _, n := range names {
		if i, ok := t.cols[cleanHeader(n)]; ok {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
	}
	return ""
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return id, nil
	}
	// Exports through dataframes write integer columns as 12.0.
	f, ferr := strconv.ParseFloat(raw, 64)
	if ferr != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return int64(f), nil
}

// rowID reads the id column or, when the file has none, numbers rows from 1.
func rowID(t *table, row []string, n int, names ...string) (int64, error) {
	if !t.has(names...) {
		return int64(n + 1), nil
	}
	return parseID(t.get(row, names...))
}

func providerRows(t *table) ([]snapshot.ProviderRow, error) {
	out := make([]snapshot.ProviderRow, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := rowID(t, row, n, "C_id", "company_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out = append(out, snapshot.ProviderRow{
			ID:          id,
			Name:        t.get(row, "C_name"),
			Description: t.get(row, "C_desc"),
			Categories:  t.get(row, "C_industry"),
			Stage:       t.get(row, "C_funding_stage"),
			Locality:    t.get(row, "C_place"),
			Amount:      t.get(row, "C_fund_size"),
		})
	}
	return out, nil
}

func seekerRows(t *table) ([]snapshot.SeekerRow, error) {
	out := make([]snapshot.SeekerRow, 0, len(t.rows))
	for n, row := range t.rows {
		id, err := rowID(t, row, n, "U_id", "user_id")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		out = append(out, snapshot.SeekerRow{
			ID:          id,
			Name:        t.get(row, "U_name"),
			Description: t.get(row, "U_invest_requirements"),
			Categories:  t.get(row, "U_industry"),
			Stages:      t.get(row, "U_fund_stage"),
			Localities:  t.get(row, "U_places"),
			MinAmount:   t.get(row, "U_check size min", "U_check_size_min"),
			MaxAmount:   t.get(row, "U_check size max", "U_check_size_max"),
		})
	}
	return out, nil
}

func decisionRows(t *table, subjectCol, objectCol string) ([]snapshot.DecisionRow, error) {
	if !t.has(subjectCol) || !t.has(objectCol) || !t.has("like_or_not") {
		if len(t.rows) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("missing %s, %s or like_or_not column", subjectCol, objectCol)
	}

	var out []snapshot.DecisionRow
	for n, row := range t.rows {
		raw := t.get(row, "like_or_not")
		if raw == "" {
			continue
		}
		likeOrNot, err := parseID(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: like_or_not: %w", n+2, err)
		}
		subject, err := parseID(t.get(row, subjectCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", n+2, subjectCol, err)
		}
		object, err := parseID(t.get(row, objectCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", n+2, objectCol, err)
		}
		if d, ok := snapshot.DecisionFromLikeOrNot(subject, object, int(likeOrNot)); ok {
			out = append(out, d)
		}
	}
	return out, nil
}
