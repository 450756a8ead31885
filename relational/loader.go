package relational

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/teranos/scholarfed/db"
	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// Entry is one journal's classification in the JSON load format.
type Entry struct {
	Identifiers []string        `json:"identifiers"`
	Categories  []EntryCategory `json:"categories"`
	Areas       []any           `json:"areas"` // non-string items are ignored
}

// EntryCategory names a category and, optionally, its quartile.
type EntryCategory struct {
	ID       string `json:"id"`
	Quartile string `json:"quartile"`
}

// LoadStats summarises one load.
type LoadStats struct {
	Entries     int
	NewJournals int
	Categories  int // newly created category records
	Areas       int // newly created area records
	Skipped     int
}

// Loader bulk-loads classification JSON into a SQLite database.
type Loader struct {
	source.Base
	logger *zap.SugaredLogger
}

var _ source.Uploader = (*Loader)(nil)

func NewLoader(path string, log *zap.SugaredLogger) *Loader {
	l := &Loader{logger: componentLogger(log)}
	l.SetDbPathOrURL(path)
	return l
}

// PushDataToDB loads the JSON array at path into the configured database.
func (l *Loader) PushDataToDB(ctx context.Context, path string) error {
	target := l.DbPathOrURL()
	if target == "" {
		return errors.NewInvalidRequestError("loader has no database path")
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	conn, err := db.OpenWithMigrations(target, l.logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	stats, err := l.Load(ctx, conn, f)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	l.logger.Infow("classification data loaded",
		logger.FieldPath, path,
		"entries", stats.Entries,
		"new_journals", stats.NewJournals,
		"new_categories", stats.Categories,
		"new_areas", stats.Areas,
		"skipped", stats.Skipped,
	)
	return nil
}

// Load decodes entries from r and writes them to conn in one transaction.
// Journals are matched by any known identifier, so reloading the same file
// adds nothing.
func (l *Loader) Load(ctx context.Context, conn *sql.DB, r io.Reader) (LoadStats, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return LoadStats{}, errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "failed to decode classification JSON")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return LoadStats{}, errors.Wrap(err, "failed to begin load transaction")
	}
	defer tx.Rollback()

	w := &writer{tx: tx, ctx: ctx}
	for _, c := range []struct {
		counter *int
		table   string
		column  string
	}{
		{&w.nextJournal, "journal", "internal_id"},
		{&w.nextCategory, "category", "category_id"},
		{&w.nextArea, "area", "area_id"},
	} {
		if *c.counter, err = w.nextCounter(c.table, c.column); err != nil {
			return LoadStats{}, err
		}
	}

	stats := LoadStats{Entries: len(entries)}
	for i, e := range entries {
		ids := cleanIdentifiers(e.Identifiers)
		if len(ids) == 0 {
			stats.Skipped++
			l.logger.Warnw("skipping entry without identifiers", "index", i)
			continue
		}
		if err := w.writeEntry(e, ids, &stats); err != nil {
			return LoadStats{}, errors.Wrapf(err, "entry %d (%s)", i, strings.Join(ids, ", "))
		}
	}

	if err := tx.Commit(); err != nil {
		return LoadStats{}, errors.Wrap(err, "failed to commit load")
	}
	return stats, nil
}

// cleanIdentifiers trims identifiers and drops blanks, keeping file order.
func cleanIdentifiers(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

type writer struct {
	tx  *sql.Tx
	ctx context.Context

	nextJournal  int
	nextCategory int
	nextArea     int
}

// nextCounter returns one past the highest numeric suffix in table.column.
// table and column are package constants, never user input.
func (w *writer) nextCounter(table, column string) (int, error) {
	query := fmt.Sprintf(
		"SELECT IFNULL(MAX(CAST(SUBSTR(%[1]s, INSTR(%[1]s, '-') + 1) AS INTEGER)), -1) FROM %[2]s",
		column, table)
	var highest int
	if err := w.tx.QueryRowContext(w.ctx, query).Scan(&highest); err != nil {
		return 0, errors.Wrapf(err, "failed to read %s counter", table)
	}
	return highest + 1, nil
}

func (w *writer) writeEntry(e Entry, ids []string, stats *LoadStats) error {
	journalID, err := w.findJournal(ids)
	if err != nil {
		return err
	}
	if journalID == "" {
		journalID = fmt.Sprintf("journal-%d", w.nextJournal)
		if _, err := w.tx.ExecContext(w.ctx, "INSERT INTO journal (internal_id) VALUES (?)", journalID); err != nil {
			return errors.Wrap(err, "failed to insert journal")
		}
		w.nextJournal++
		stats.NewJournals++
	}

	for _, id := range ids {
		if _, err := w.tx.ExecContext(w.ctx,
			"INSERT OR IGNORE INTO journal_identifier (journal_id, identifier) VALUES (?, ?)", journalID, id); err != nil {
			return errors.Wrap(err, "failed to insert identifier")
		}
	}

	for _, c := range e.Categories {
		name := sanitize(c.ID)
		if name == "" {
			continue
		}
		categoryID, created, err := w.upsert(
			"SELECT category_id FROM category WHERE category = ? AND quartile = ?",
			"INSERT INTO category (category_id, category, quartile) VALUES (?, ?, ?)",
			"cat", &w.nextCategory, name, strings.TrimSpace(c.Quartile))
		if err != nil {
			return err
		}
		if created {
			stats.Categories++
		}
		if _, err := w.tx.ExecContext(w.ctx,
			"INSERT OR IGNORE INTO has_category (journal_id, category_id) VALUES (?, ?)", journalID, categoryID); err != nil {
			return errors.Wrap(err, "failed to link category")
		}
	}

	for _, raw := range e.Areas {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		name := sanitize(s)
		if name == "" {
			continue
		}
		areaID, created, err := w.upsert(
			"SELECT area_id FROM area WHERE area = ?",
			"INSERT INTO area (area_id, area) VALUES (?, ?)",
			"area", &w.nextArea, name)
		if err != nil {
			return err
		}
		if created {
			stats.Areas++
		}
		if _, err := w.tx.ExecContext(w.ctx,
			"INSERT OR IGNORE INTO has_area (journal_id, area_id) VALUES (?, ?)", journalID, areaID); err != nil {
			return errors.Wrap(err, "failed to link area")
		}
	}
	return nil
}

func (w *writer) findJournal(ids []string) (string, error) {
	for _, id := range ids {
		var journalID string
		err := w.tx.QueryRowContext(w.ctx, journalByIdentifierQuery, id).Scan(&journalID)
		if err == nil {
			return journalID, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", errors.Wrapf(err, "failed to look up %s", id)
		}
	}
	return "", nil
}

// upsert returns the id of the record matching key, inserting it under the
// next prefix-N id when absent.
func (w *writer) upsert(selectQuery, insertQuery, prefix string, counter *int, key ...any) (string, bool, error) {
	var id string
	err := w.tx.QueryRowContext(w.ctx, selectQuery, key...).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, errors.Wrapf(err, "failed to look up %s", prefix)
	}

	id = fmt.Sprintf("%s-%d", prefix, *counter)
	if _, err := w.tx.ExecContext(w.ctx, insertQuery, append([]any{id}, key...)...); err != nil {
		return "", false, errors.Wrapf(err, "failed to insert %s", id)
	}
	*counter++
	return id, true, nil
}

// sanitize trims a name and replaces ";" so it cannot split identifier lists.
func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ";", ","))
}
