/*
Package sqlite provides a SQLite-backed store.CriteriaStore.

PURPOSE:
  Persists the live program tier criteria table edited on the admin
  settings page. In production the same statements run on PostgreSQL with
  minor dialect differences.

KEY TABLES:
  tier_criteria: One row per tier, keyed by tier name. Amounts are stored
                 as decimal strings so no precision is lost.

VERSIONING:
  Every upsert bumps the row's version; created_at is kept, updated_at is
  refreshed.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. An in-memory database is pinned to
  a single connection so every caller sees the same data.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  s, err := sqlite.New("./loyalty.db", logger)
  if err != nil {
      return err
  }
  defer s.Close()

  if err := s.SeedDefaults(ctx); err != nil {
      return err
  }

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Interface and record definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/loyalty-engine/loyalty"
	"github.com/warp/loyalty-engine/store"
)

// Store implements store.CriteriaStore using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *zap.Logger
}

var _ store.CriteriaStore = (*Store)(nil)

// New opens (and migrates) the database at dbPath. Use ":memory:" for an
// in-memory database. A nil logger disables logging.
func New(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath + "?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, logger: logger.Named("sqlite")}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s.logger.Debug("database ready", zap.String("path", dbPath))
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Live tier criteria (admin settings page)
	CREATE TABLE IF NOT EXISTS tier_criteria (
		tier TEXT PRIMARY KEY,
		tier_rank INTEGER NOT NULL,
		min_order_count INTEGER NOT NULL DEFAULT 0,
		min_total_sales TEXT NOT NULL DEFAULT '0',
		discount_rate TEXT NOT NULL DEFAULT '0',
		consecutive_months_for_bonus INTEGER,
		bonus_tier_duration_months INTEGER NOT NULL DEFAULT 1,
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tier_criteria_rank
		ON tier_criteria(tier_rank);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CRITERIA STORE (store.CriteriaStore interface)
// =============================================================================

const selectColumns = `
	SELECT tier, min_order_count, min_total_sales, discount_rate,
	       consecutive_months_for_bonus, bonus_tier_duration_months,
	       description, is_active, version, updated_at
	FROM tier_criteria`

// List returns every row in tier order.
func (s *Store) List(ctx context.Context) ([]store.CriteriaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY tier_rank ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tier criteria: %w", err)
	}
	defer rows.Close()

	var out []store.CriteriaRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Get returns the row for tier.
func (s *Store) Get(ctx context.Context, tier loyalty.Tier) (*store.CriteriaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE tier = ?", tier.String())
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCriteriaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save upserts one row.
func (s *Store) Save(ctx context.Context, rec store.CriteriaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upsert(ctx, s.db, rec); err != nil {
		return err
	}
	s.logger.Info("tier criteria saved", zap.Stringer("tier", rec.Tier), zap.Bool("active", rec.IsActive))
	return nil
}

// SaveAll upserts every row in one transaction.
func (s *Store) SaveAll(ctx context.Context, recs []store.CriteriaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range recs {
		if err := s.upsert(ctx, tx, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tier criteria: %w", err)
	}

	s.logger.Info("tier criteria replaced", zap.Int("rows", len(recs)))
	return nil
}

// SeedDefaults inserts the default rows for tiers that have none.
func (s *Store) SeedDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := 0
	for _, rec := range store.DefaultRecords() {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO tier_criteria
			(tier, tier_rank, min_order_count, min_total_sales, discount_rate,
			 consecutive_months_for_bonus, bonus_tier_duration_months,
			 description, is_active, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(tier) DO NOTHING
		`, insertArgs(rec)...)
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", rec.Tier, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			seeded++
		}
	}

	if seeded > 0 {
		s.logger.Info("seeded default tier criteria", zap.Int("rows", seeded))
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) upsert(ctx context.Context, db execer, rec store.CriteriaRecord) error {
	if !rec.Tier.IsValid() {
		return fmt.Errorf("failed to save tier criteria: unknown tier %d", int(rec.Tier))
	}
	if rec.Description == "" {
		rec.Description = rec.GenerateDescription()
	}

	query := `
		INSERT INTO tier_criteria
		(tier, tier_rank, min_order_count, min_total_sales, discount_rate,
		 consecutive_months_for_bonus, bonus_tier_duration_months,
		 description, is_active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(tier) DO UPDATE SET
			min_order_count = excluded.min_order_count,
			min_total_sales = excluded.min_total_sales,
			discount_rate = excluded.discount_rate,
			consecutive_months_for_bonus = excluded.consecutive_months_for_bonus,
			bonus_tier_duration_months = excluded.bonus_tier_duration_months,
			description = excluded.description,
			is_active = excluded.is_active,
			version = tier_criteria.version + 1,
			updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, insertArgs(rec)...); err != nil {
		return fmt.Errorf("failed to save tier criteria %s: %w", rec.Tier, err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func insertArgs(rec store.CriteriaRecord) []any {
	now := time.Now().UTC().Format(time.RFC3339)
	return []any{
		rec.Tier.String(),
		int(rec.Tier),
		rec.MinOrderCount,
		rec.MinTotalSales.String(),
		rec.DiscountRate.String(),
		nullInt(rec.ConsecutiveMonthsForBonus),
		rec.BonusTierDurationMonths,
		rec.Description,
		rec.IsActive,
		now,
		now,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (store.CriteriaRecord, error) {
	var (
		rec                  store.CriteriaRecord
		tierName             string
		sales, rate, updated string
		consecutive          sql.NullInt64
	)
	err := row.Scan(&tierName, &rec.MinOrderCount, &sales, &rate,
		&consecutive, &rec.BonusTierDurationMonths,
		&rec.Description, &rec.IsActive, &rec.Version, &updated)
	if err != nil {
		return rec, err
	}

	if rec.Tier, err = loyalty.ParseTier(tierName); err != nil {
		return rec, fmt.Errorf("corrupt tier_criteria row: %w", err)
	}
	if rec.MinTotalSales, err = decimal.NewFromString(sales); err != nil {
		return rec, fmt.Errorf("corrupt min_total_sales for %s: %w", tierName, err)
	}
	if rec.DiscountRate, err = decimal.NewFromString(rate); err != nil {
		return rec, fmt.Errorf("corrupt discount_rate for %s: %w", tierName, err)
	}
	if consecutive.Valid {
		v := int(consecutive.Int64)
		rec.ConsecutiveMonthsForBonus = &v
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return rec, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// Reset clears all rows (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM tier_criteria")
	return err
}
