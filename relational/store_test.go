package relational

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/scholarfed/errors"
	qtesting "github.com/teranos/scholarfed/internal/testing"
	"github.com/teranos/scholarfed/source"
)

const fixture = `[
  {
    "identifiers": ["1234-5678", "9999-0000"],
    "categories": [{"id": "Medicine", "quartile": "Q1"}, {"id": "Biology", "quartile": "Q3"}],
    "areas": ["Health", "Life"]
  },
  {
    "identifiers": ["2222-3333"],
    "categories": [{"id": "Biology", "quartile": "Q2"}, {"id": "Ecology"}],
    "areas": ["Life", 42]
  },
  {
    "identifiers": ["4444-5555"],
    "categories": [{"id": "Medicine", "quartile": "Q1"}],
    "areas": ["Health"]
  },
  {
    "identifiers": [],
    "categories": [{"id": "Orphan", "quartile": "Q4"}]
  }
]`

func loadedStore(t *testing.T) *CategoryStore {
	t.Helper()
	conn := qtesting.CreateTestDB(t)
	log := zaptest.NewLogger(t).Sugar()

	stats, err := NewLoader("", log).Load(context.Background(), conn, strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Equal(t, LoadStats{Entries: 4, NewJournals: 3, Categories: 4, Areas: 2, Skipped: 1}, stats)

	return NewCategoryStoreWithDB(conn, log)
}

func TestGetByIDJournal(t *testing.T) {
	s := loadedStore(t)

	rows, err := s.GetByID(context.Background(), "9999-0000")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "1234-5678; 9999-0000", row.Identifier)
	assert.Equal(t, []string{"Medicine", "Biology"}, row.Categories)
	assert.Equal(t, []string{"Q1", "Q3"}, row.Quartiles)
	assert.Equal(t, []string{"Health", "Life"}, row.Areas)
}

func TestGetByIDKeepsListsAligned(t *testing.T) {
	s := loadedStore(t)

	rows, err := s.GetByID(context.Background(), "2222-3333")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"Biology", "Ecology"}, rows[0].Categories)
	_, ok := rows[0].QuartileAt(1)
	assert.False(t, ok, "unranked category has an absent quartile")
	assert.Equal(t, []string{"Life"}, rows[0].Areas, "non-string areas are ignored")
}

func TestGetByIDNativeRecords(t *testing.T) {
	s := loadedStore(t)
	ctx := context.Background()

	rows, err := s.GetByID(ctx, "cat-0")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, source.CategoryRow{Categories: []string{"Medicine"}, Quartiles: []string{"Q1"}, CategoryID: "cat-0"}, rows[0])

	rows, err = s.GetByID(ctx, "area-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, source.CategoryRow{Areas: []string{"Life"}, AreaID: "area-1"}, rows[0])

	rows, err = s.GetByID(ctx, "0000-0000")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListings(t *testing.T) {
	s := loadedStore(t)
	ctx := context.Background()

	all, err := s.GetAllCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology", "Ecology", "Medicine"}, categoryNames(all))

	areas, err := s.GetAllAreas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Life"}, areaNames(areas))

	q1, err := s.GetCategoriesWithQuartile(ctx, []string{"Q1", "Q2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology", "Medicine"}, categoryNames(q1))

	everything, err := s.GetCategoriesWithQuartile(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, everything, 4)

	inHealth, err := s.GetCategoriesAssignedToAreas(ctx, []string{"Health"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Biology", "Medicine"}, categoryNames(inHealth))

	ecologyAreas, err := s.GetAreasAssignedToCategories(ctx, []string{"Ecology"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Life"}, areaNames(ecologyAreas))

	allAssigned, err := s.GetAreasAssignedToCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, allAssigned, 2)
}

func TestGetJournalsByArea(t *testing.T) {
	s := loadedStore(t)
	ctx := context.Background()

	health, err := s.GetJournalsByArea(ctx, []string{"Health"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1234-5678; 9999-0000", "4444-5555"}, identifiers(health))

	all, err := s.GetJournalsByArea(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := s.GetJournalsByArea(ctx, []string{"Astronomy"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReloadIsIdempotent(t *testing.T) {
	conn := qtesting.CreateTestDB(t)
	loader := NewLoader("", zaptest.NewLogger(t).Sugar())
	ctx := context.Background()

	_, err := loader.Load(ctx, conn, strings.NewReader(fixture))
	require.NoError(t, err)
	stats, err := loader.Load(ctx, conn, strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Zero(t, stats.NewJournals)
	assert.Zero(t, stats.Categories)

	more := `[{"identifiers": ["7777-8888"], "categories": [{"id": "Physics", "quartile": "Q1"}], "areas": ["Physical Sciences"]}]`
	_, err = loader.Load(ctx, conn, strings.NewReader(more))
	require.NoError(t, err)

	rows, err := NewCategoryStoreWithDB(conn, nil).GetByID(ctx, "journal-3")
	require.NoError(t, err)
	assert.Empty(t, rows, "internal journal ids are not public identifiers")

	rows, err = NewCategoryStoreWithDB(conn, nil).GetByID(ctx, "cat-4")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Physics"}, rows[0].Categories, "counters continue after existing records")
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	conn := qtesting.CreateTestDB(t)

	_, err := NewLoader("", nil).Load(context.Background(), conn, strings.NewReader(`{"identifiers": 1}`))

	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestPushDataToDBAndLazyOpen(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "classification.db")
	jsonPath := filepath.Join(dir, "classification.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(fixture), 0o644))
	log := zaptest.NewLogger(t).Sugar()

	require.NoError(t, NewLoader(dbPath, log).PushDataToDB(context.Background(), jsonPath))

	s := NewCategoryStore(dbPath, log)
	t.Cleanup(func() { s.Close() })
	assert.Equal(t, dbPath, s.DbPathOrURL())

	rows, err := s.GetByID(context.Background(), "4444-5555")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Medicine"}, rows[0].Categories)

	assert.False(t, s.SetDbPathOrURL(""))
	assert.True(t, s.SetDbPathOrURL(filepath.Join(dir, "empty.db")))
	rows, err = s.GetByID(context.Background(), "4444-5555")
	require.NoError(t, err)
	assert.Empty(t, rows, "store follows the new location")
}

func TestPushDataToDBMissingFile(t *testing.T) {
	err := NewLoader(filepath.Join(t.TempDir(), "x.db"), nil).PushDataToDB(context.Background(), "/nonexistent.json")
	assert.Error(t, err)
}

func TestStoreWithoutPath(t *testing.T) {
	_, err := NewCategoryStore("", nil).GetAllAreas(context.Background())

	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT journal_id FROM journal_identifier WHERE identifier = ?")).
		WithArgs("1234-5678").
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewCategoryStoreWithDB(conn, nil).GetByID(context.Background(), "1234-5678")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up journal 1234-5678")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuartileFilterArguments(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE quartile IN (?,?)")).
		WithArgs("Q1", "Q2").
		WillReturnRows(sqlmock.NewRows([]string{"category_id", "category", "quartile"}).
			AddRow("cat-0", "Medicine", "Q1"))

	rows, err := NewCategoryStoreWithDB(conn, nil).GetCategoriesWithQuartile(context.Background(), []string{"Q1", "Q2"})

	require.NoError(t, err)
	assert.Equal(t, []source.CategoryRow{{Categories: []string{"Medicine"}, Quartiles: []string{"Q1"}, CategoryID: "cat-0"}}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClosedHandleIsBackendUnavailable(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT area_id, area FROM area ORDER BY area")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT area_id, area FROM area ORDER BY area")).
		WillReturnError(errors.New("sql: database is closed"))

	store := NewCategoryStoreWithDB(conn, nil)
	_, err = store.GetAllAreas(context.Background())
	require.Error(t, err)
	assert.False(t, errors.IsBackendUnavailable(err))

	_, err = store.GetAllAreas(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsBackendUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func categoryNames(rows []source.CategoryRow) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		for _, c := range r.Categories {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func areaNames(rows []source.CategoryRow) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Areas...)
	}
	return out
}

func identifiers(rows []source.CategoryRow) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Identifier)
	}
	return out
}
