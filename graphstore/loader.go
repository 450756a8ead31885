package graphstore

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/internal/httpclient"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

// DOAJ CSV export columns read by the loader.
const (
	ColumnTitle     = "Journal title"
	ColumnISSN      = "Journal ISSN (print version)"
	ColumnEISSN     = "Journal EISSN (online version)"
	ColumnLanguages = "Languages in which the journal accepts manuscripts"
	ColumnPublisher = "Publisher"
	ColumnSeal      = "DOAJ Seal"
	ColumnLicense   = "Journal license"
	ColumnAPC       = "APC"
)

// DefaultBatchSize is the number of journals sent per INSERT DATA update.
const DefaultBatchSize = 200

// SubjectBase prefixes journal subject IRIs.
const SubjectBase = "https://scholarfed.teranos.dev/journal/"

var subjectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte(SubjectBase))

// Loader converts a DOAJ CSV export into journal triples and inserts them
// into a SPARQL endpoint.
type Loader struct {
	source.Base
	client    *httpclient.Client
	logger    *zap.SugaredLogger
	BatchSize int
}

var _ source.Uploader = (*Loader)(nil)

func NewLoader(endpoint string, client *httpclient.Client, log *zap.SugaredLogger) *Loader {
	l := &Loader{client: orDefault(client), logger: componentLogger(log), BatchSize: DefaultBatchSize}
	l.SetDbPathOrURL(endpoint)
	return l
}

// SetDbPathOrURL accepts only endpoints the client is allowed to reach.
func (l *Loader) SetDbPathOrURL(endpoint string) bool {
	if _, err := l.client.ValidateURL(strings.TrimSpace(endpoint)); err != nil {
		return false
	}
	return l.Base.SetDbPathOrURL(endpoint)
}

// PushDataToDB reads the CSV at path and uploads it.
func (l *Loader) PushDataToDB(ctx context.Context, path string) error {
	if l.DbPathOrURL() == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("loader has no endpoint"),
			"set graph.endpoints in am.toml")
	}
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	n, err := l.Load(ctx, f)
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	l.logger.Infow("journal data loaded", logger.FieldPath, path, logger.FieldEndpoint, l.DbPathOrURL(), logger.FieldCount, n)
	return nil
}

// Load parses CSV from r and inserts it batch by batch. It returns the number
// of journals written. Rows without any ISSN are skipped.
func (l *Loader) Load(ctx context.Context, r io.Reader) (int, error) {
	records, err := readRecords(r)
	if err != nil {
		return 0, err
	}

	batchSize := l.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	written := 0
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		update := "INSERT DATA {\n" + strings.Join(batch, "") + "}"
		if err := postForm(ctx, l.client, l.logger, l.DbPathOrURL(), "update", update, "", nil); err != nil {
			return err
		}
		l.logger.Debugw("batch inserted", logger.FieldBatchSize, len(batch))
		written += len(batch)
		batch = batch[:0]
		return nil
	}

	for i, rec := range records {
		triples, ok := rec.triples()
		if !ok {
			l.logger.Warnw("skipping journal without ISSN", "line", i+2, "title", rec[ColumnTitle])
			continue
		}
		batch = append(batch, triples)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return written, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, err
	}
	return written, nil
}

// record maps column names to trimmed cell values.
type record map[string]string

func readRecords(r io.Reader) ([]record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "failed to read CSV header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	if !contains(header, ColumnISSN) && !contains(header, ColumnEISSN) {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("CSV has neither %q nor %q column", ColumnISSN, ColumnEISSN),
			"expected a DOAJ journal CSV export")
	}

	var records []record
	for {
		cells, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "failed to read CSV")
		}
		rec := make(record, len(header))
		for i, name := range header {
			if i < len(cells) {
				rec[name] = strings.TrimSpace(cells[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func (r record) identifiers() []string {
	ids := make([]string, 0, 2)
	for _, col := range []string{ColumnISSN, ColumnEISSN} {
		if v := r[col]; v != "" {
			ids = append(ids, v)
		}
	}
	return ids
}

// SubjectIRI derives a stable journal IRI from its identifiers, so reloading
// the same export rewrites the same triples.
func SubjectIRI(identifiers []string) string {
	return SubjectBase + uuid.NewSHA1(subjectNamespace, []byte(source.JoinIdentifiers(identifiers))).String()
}

// triples renders the record as N-Triples lines. It returns false when the
// record has no identifier.
func (r record) triples() (string, bool) {
	ids := r.identifiers()
	if len(ids) == 0 {
		return "", false
	}
	subject := "<" + SubjectIRI(ids) + ">"

	var b strings.Builder
	add := func(predicate, object string) {
		b.WriteString(subject)
		b.WriteString(" <")
		b.WriteString(predicate)
		b.WriteString("> ")
		b.WriteString(object)
		b.WriteString(" .\n")
	}

	add(rdfType, "<"+schemaJournal+">")
	add(propID, literal(source.JoinIdentifiers(ids)))
	if v := r[ColumnTitle]; v != "" {
		add(propTitle, literal(v))
	}
	for _, lang := range source.SplitList(r[ColumnLanguages], source.LanguageSeparator) {
		add(propLanguage, literal(lang))
	}
	if v := r[ColumnPublisher]; v != "" {
		add(propPublisher, literal(v))
	}
	if v := r[ColumnSeal]; v != "" {
		add(propSeal, booleanLiteral(yes(v)))
	}
	if v := r[ColumnLicense]; v != "" {
		add(propLicense, literal(v))
	}
	if v := r[ColumnAPC]; v != "" {
		add(propAPC, booleanLiteral(yes(v)))
	}
	return b.String(), true
}

func yes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

func booleanLiteral(v bool) string {
	if v {
		return `"true"^^<` + xsdBoolean + ">"
	}
	return `"false"^^<` + xsdBoolean + ">"
}
