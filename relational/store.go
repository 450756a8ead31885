// Package relational implements the classification source over SQLite:
// journal identifiers linked to subject categories (ranked per quartile) and
// research areas.
package relational

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/scholarfed/db"
	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// Query constants
const (
	journalByIdentifierQuery = `
		SELECT journal_id FROM journal_identifier WHERE identifier = ?`

	identifiersOfJournalQuery = `
		SELECT identifier FROM journal_identifier WHERE journal_id = ? ORDER BY rowid`

	categoriesOfJournalQuery = `
		SELECT c.category, c.quartile
		FROM has_category hc
		JOIN category c ON c.category_id = hc.category_id
		WHERE hc.journal_id = ?
		ORDER BY hc.rowid`

	areasOfJournalQuery = `
		SELECT a.area
		FROM has_area ha
		JOIN area a ON a.area_id = ha.area_id
		WHERE ha.journal_id = ?
		ORDER BY ha.rowid`

	categoryByIDQuery = `
		SELECT category_id, category, quartile FROM category WHERE category_id = ?`

	areaByIDQuery = `
		SELECT area_id, area FROM area WHERE area_id = ?`

	allCategoriesQuery = `
		SELECT DISTINCT category FROM category ORDER BY category`

	allAreasQuery = `
		SELECT area_id, area FROM area ORDER BY area`

	categoriesQuery = `
		SELECT category_id, category, quartile FROM category`

	categoriesInAreasQuery = `
		SELECT DISTINCT c.category_id, c.category, c.quartile
		FROM has_category hc
		JOIN category c ON c.category_id = hc.category_id`

	areasInCategoriesQuery = `
		SELECT DISTINCT a.area_id, a.area
		FROM has_area ha
		JOIN area a ON a.area_id = ha.area_id`

	journalIdentifiersQuery = `
		SELECT journal_id, identifier FROM journal_identifier`
)

// CategoryStore answers classification queries from one SQLite database.
// The database is opened, and migrated, on first use.
type CategoryStore struct {
	source.Base

	mu     sync.Mutex
	db     *sql.DB
	ownsDB bool
	logger *zap.SugaredLogger
}

var _ source.CategorySource = (*CategoryStore)(nil)

// NewCategoryStore creates a store for the database at path.
func NewCategoryStore(path string, log *zap.SugaredLogger) *CategoryStore {
	s := &CategoryStore{logger: componentLogger(log)}
	s.Base.SetDbPathOrURL(path)
	return s
}

// NewCategoryStoreWithDB wraps an existing handle; the caller keeps ownership.
func NewCategoryStoreWithDB(conn *sql.DB, log *zap.SugaredLogger) *CategoryStore {
	return &CategoryStore{db: conn, logger: componentLogger(log)}
}

func componentLogger(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		log = logger.Logger
	}
	return log.Named("relational")
}

// SetDbPathOrURL points the store at another database file, closing the
// current one if the store opened it.
func (s *CategoryStore) SetDbPathOrURL(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Base.SetDbPathOrURL(path) {
		return false
	}
	s.closeLocked()
	return true
}

// Close releases the database if the store opened it.
func (s *CategoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *CategoryStore) closeLocked() error {
	var err error
	if s.db != nil && s.ownsDB {
		err = s.db.Close()
	}
	s.db, s.ownsDB = nil, false
	return err
}

func (s *CategoryStore) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	path := s.DbPathOrURL()
	if path == "" {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("classification store has no database path"),
			"set database.paths in am.toml",
		)
	}
	conn, err := db.OpenWithMigrations(path, s.logger)
	if err != nil {
		return nil, errors.WrapBackendUnavailable(err, "failed to open classification store")
	}
	s.db, s.ownsDB = conn, true
	return conn, nil
}

// GetByID resolves a journal identifier to the journal's full
// classification. Native category (cat-N) and area (area-N) ids resolve to
// that single record.
func (s *CategoryStore) GetByID(ctx context.Context, id string) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}

	var journalID string
	err = conn.QueryRowContext(ctx, journalByIdentifierQuery, id).Scan(&journalID)
	switch {
	case err == nil:
		row, err := s.journalClassification(ctx, conn, journalID)
		if err != nil {
			return nil, err
		}
		return []source.CategoryRow{row}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrapf(err, "failed to look up journal %s", id)
	}

	var c categoryRecord
	err = conn.QueryRowContext(ctx, categoryByIDQuery, id).Scan(&c.id, &c.name, &c.quartile)
	switch {
	case err == nil:
		return []source.CategoryRow{c.row()}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrapf(err, "failed to look up category %s", id)
	}

	var a areaRecord
	err = conn.QueryRowContext(ctx, areaByIDQuery, id).Scan(&a.id, &a.name)
	switch {
	case err == nil:
		return []source.CategoryRow{a.row()}, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, errors.Wrapf(err, "failed to look up area %s", id)
	}

	return []source.CategoryRow{}, nil
}

func (s *CategoryStore) journalClassification(ctx context.Context, conn *sql.DB, journalID string) (source.CategoryRow, error) {
	ids, err := queryStrings(ctx, conn, identifiersOfJournalQuery, journalID)
	if err != nil {
		return source.CategoryRow{}, errors.Wrapf(err, "failed to read identifiers of %s", journalID)
	}

	row := source.CategoryRow{
		Identifier: source.JoinIdentifiers(ids),
		Categories: []string{},
		Quartiles:  []string{},
	}
	rows, err := conn.QueryContext(ctx, categoriesOfJournalQuery, journalID)
	if err != nil {
		return source.CategoryRow{}, errors.Wrapf(err, "failed to read categories of %s", journalID)
	}
	defer rows.Close()
	for rows.Next() {
		var name, quartile string
		if err := rows.Scan(&name, &quartile); err != nil {
			return source.CategoryRow{}, errors.Wrap(err, "failed to scan category")
		}
		row.Categories = append(row.Categories, name)
		row.Quartiles = append(row.Quartiles, quartile)
	}
	if err := rows.Err(); err != nil {
		return source.CategoryRow{}, errors.Wrap(err, "failed to iterate categories")
	}

	if row.Areas, err = queryStrings(ctx, conn, areasOfJournalQuery, journalID); err != nil {
		return source.CategoryRow{}, errors.Wrapf(err, "failed to read areas of %s", journalID)
	}
	return row, nil
}

// GetAllCategories returns one row per distinct category name.
func (s *CategoryStore) GetAllCategories(ctx context.Context) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	names, err := queryStrings(ctx, conn, allCategoriesQuery)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list categories")
	}
	out := make([]source.CategoryRow, 0, len(names))
	for _, n := range names {
		out = append(out, source.CategoryRow{Categories: []string{n}})
	}
	return out, nil
}

func (s *CategoryStore) GetAllAreas(ctx context.Context) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.queryAreas(ctx, conn, allAreasQuery)
}

// GetCategoriesWithQuartile returns every (category, quartile) record whose
// quartile is in quartiles, or all records when quartiles is empty.
func (s *CategoryStore) GetCategoriesWithQuartile(ctx context.Context, quartiles []string) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	query, args := categoriesQuery, []any(nil)
	if len(quartiles) > 0 {
		query += " WHERE quartile IN (" + placeholders(len(quartiles)) + ")"
		args = toArgs(quartiles)
	}
	return s.queryCategories(ctx, conn, query+" ORDER BY category, quartile", args...)
}

// GetCategoriesAssignedToAreas returns categories held by journals in any of
// areas; every assigned category when areas is empty.
func (s *CategoryStore) GetCategoriesAssignedToAreas(ctx context.Context, areas []string) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	query, args := categoriesInAreasQuery, []any(nil)
	if len(areas) > 0 {
		query += `
		JOIN has_area ha ON ha.journal_id = hc.journal_id
		JOIN area a ON a.area_id = ha.area_id
		WHERE a.area IN (` + placeholders(len(areas)) + ")"
		args = toArgs(areas)
	}
	return s.queryCategories(ctx, conn, query+" ORDER BY c.category, c.quartile", args...)
}

// GetAreasAssignedToCategories returns areas of journals holding any of
// categories; every assigned area when categories is empty.
func (s *CategoryStore) GetAreasAssignedToCategories(ctx context.Context, categories []string) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	query, args := areasInCategoriesQuery, []any(nil)
	if len(categories) > 0 {
		query += `
		JOIN has_category hc ON hc.journal_id = ha.journal_id
		JOIN category c ON c.category_id = hc.category_id
		WHERE c.category IN (` + placeholders(len(categories)) + ")"
		args = toArgs(categories)
	}
	return s.queryAreas(ctx, conn, query+" ORDER BY a.area", args...)
}

// GetJournalsByArea returns one row per journal in any of areas, carrying
// the journal's identifiers. Every journal when areas is empty.
func (s *CategoryStore) GetJournalsByArea(ctx context.Context, areas []string) ([]source.CategoryRow, error) {
	conn, err := s.conn()
	if err != nil {
		return nil, err
	}
	query, args := journalIdentifiersQuery, []any(nil)
	if len(areas) > 0 {
		query += `
		WHERE journal_id IN (
			SELECT ha.journal_id FROM has_area ha
			JOIN area a ON a.area_id = ha.area_id
			WHERE a.area IN (` + placeholders(len(areas)) + "))"
		args = toArgs(areas)
	}
	query += " ORDER BY journal_id, rowid"
	s.trace(query, args)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(err, "failed to list journals by area")
	}
	defer rows.Close()

	var (
		out     = []source.CategoryRow{}
		current string
		ids     []string
	)
	flush := func() {
		if len(ids) > 0 {
			out = append(out, source.CategoryRow{Identifier: source.JoinIdentifiers(ids)})
		}
		ids = nil
	}
	for rows.Next() {
		var journalID, identifier string
		if err := rows.Scan(&journalID, &identifier); err != nil {
			return nil, errors.Wrap(err, "failed to scan journal identifier")
		}
		if journalID != current {
			flush()
			current = journalID
		}
		ids = append(ids, identifier)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate journal identifiers")
	}
	flush()
	return out, nil
}

type categoryRecord struct {
	id, name, quartile string
}

func (c categoryRecord) row() source.CategoryRow {
	r := source.CategoryRow{Categories: []string{c.name}, CategoryID: c.id}
	if c.quartile != "" {
		r.Quartiles = []string{c.quartile}
	}
	return r
}

type areaRecord struct {
	id, name string
}

func (a areaRecord) row() source.CategoryRow {
	return source.CategoryRow{Areas: []string{a.name}, AreaID: a.id}
}

func (s *CategoryStore) queryCategories(ctx context.Context, conn *sql.DB, query string, args ...any) ([]source.CategoryRow, error) {
	s.trace(query, args)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(err, "failed to query categories")
	}
	defer rows.Close()

	out := []source.CategoryRow{}
	for rows.Next() {
		var c categoryRecord
		if err := rows.Scan(&c.id, &c.name, &c.quartile); err != nil {
			return nil, errors.Wrap(err, "failed to scan category")
		}
		out = append(out, c.row())
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate categories")
	}
	s.logger.Debugw("categories queried", logger.FieldRows, len(out))
	return out, nil
}

func (s *CategoryStore) queryAreas(ctx context.Context, conn *sql.DB, query string, args ...any) ([]source.CategoryRow, error) {
	s.trace(query, args)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapQueryError(err, "failed to query areas")
	}
	defer rows.Close()

	out := []source.CategoryRow{}
	for rows.Next() {
		var a areaRecord
		if err := rows.Scan(&a.id, &a.name); err != nil {
			return nil, errors.Wrap(err, "failed to scan area")
		}
		out = append(out, a.row())
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate areas")
	}
	s.logger.Debugw("areas queried", logger.FieldRows, len(out))
	return out, nil
}

func (s *CategoryStore) trace(query string, args []any) {
	if logger.TraceEnabled() {
		s.logger.Debugw("sql text", logger.FieldQuery, strings.Join(strings.Fields(query), " "), "args", args)
	}
}

func queryStrings(ctx context.Context, conn *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// wrapQueryError marks a closed handle as an unavailable backend.
func wrapQueryError(err error, msg string) error {
	if db.IsDatabaseClosed(err) {
		return errors.WrapBackendUnavailable(err, msg)
	}
	return errors.Wrap(err, msg)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
