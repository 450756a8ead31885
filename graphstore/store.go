// Package graphstore implements the journal source over a SPARQL 1.1 endpoint
// holding DOAJ journal metadata as schema.org triples, plus the loader that
// fills it from the DOAJ CSV export.
package graphstore

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/teranos/scholarfed/errors"
	"github.com/teranos/scholarfed/internal/httpclient"
	"github.com/teranos/scholarfed/internal/util"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/source"
)

const (
	sparqlResultsJSON = "application/sparql-results+json"
	formContentType   = "application/x-www-form-urlencoded"

	// maxErrorBody caps how much of a failed response ends up in the error.
	maxErrorBody = 512
)

// JournalStore answers journal queries from one SPARQL endpoint.
type JournalStore struct {
	source.Base
	client *httpclient.Client
	logger *zap.SugaredLogger
}

var _ source.JournalSource = (*JournalStore)(nil)

// NewJournalStore creates a store for endpoint. A nil client gets the
// default policy, which refuses private addresses.
func NewJournalStore(endpoint string, client *httpclient.Client, log *zap.SugaredLogger) *JournalStore {
	s := &JournalStore{client: orDefault(client), logger: componentLogger(log)}
	s.SetDbPathOrURL(endpoint)
	return s
}

func orDefault(client *httpclient.Client) *httpclient.Client {
	if client == nil {
		return httpclient.New(httpclient.Options{})
	}
	return client
}

func componentLogger(log *zap.SugaredLogger) *zap.SugaredLogger {
	if log == nil {
		log = logger.Logger
	}
	return log.Named("graphstore")
}

// SetDbPathOrURL accepts only endpoints the client is allowed to reach.
func (s *JournalStore) SetDbPathOrURL(endpoint string) bool {
	if _, err := s.client.ValidateURL(strings.TrimSpace(endpoint)); err != nil {
		s.logger.Debugw("endpoint refused", logger.FieldEndpoint, endpoint, logger.FieldError, err)
		return false
	}
	return s.Base.SetDbPathOrURL(endpoint)
}

func (s *JournalStore) GetByID(ctx context.Context, id string) ([]source.JournalRow, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return []source.JournalRow{}, nil
	}
	return s.selectJournals(ctx, identifierFilter(id))
}

func (s *JournalStore) GetAllJournals(ctx context.Context) ([]source.JournalRow, error) {
	return s.selectJournals(ctx, "")
}

func (s *JournalStore) GetJournalsWithTitle(ctx context.Context, partialTitle string) ([]source.JournalRow, error) {
	return s.selectJournals(ctx, containsFilter("title", partialTitle))
}

func (s *JournalStore) GetJournalsPublishedBy(ctx context.Context, partialName string) ([]source.JournalRow, error) {
	if partialName == "" {
		return []source.JournalRow{}, nil
	}
	return s.selectJournals(ctx, containsFilter("publisher", partialName))
}

func (s *JournalStore) GetJournalsWithLicense(ctx context.Context, licenses []string) ([]source.JournalRow, error) {
	return s.selectJournals(ctx, licenseFilter(licenses))
}

func (s *JournalStore) GetJournalsWithAPC(ctx context.Context) ([]source.JournalRow, error) {
	return s.selectJournals(ctx, booleanFilter("apc", true))
}

func (s *JournalStore) GetJournalsWithoutAPC(ctx context.Context) ([]source.JournalRow, error) {
	return s.selectJournals(ctx, booleanFilter("apc", false))
}

func (s *JournalStore) GetJournalsWithDOAJSeal(ctx context.Context) ([]source.JournalRow, error) {
	return s.selectJournals(ctx, booleanFilter("seal", true))
}

// binding is one variable value in a SPARQL JSON result.
type binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
}

type selectResult struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

func (s *JournalStore) selectJournals(ctx context.Context, filter string) ([]source.JournalRow, error) {
	var result selectResult
	if err := s.post(ctx, "query", buildQuery(filter), sparqlResultsJSON, &result); err != nil {
		return nil, err
	}

	rows := make([]source.JournalRow, 0, len(result.Results.Bindings))
	for _, b := range result.Results.Bindings {
		row, err := toRow(b)
		if err != nil {
			s.logger.Warnw("skipping malformed result", logger.FieldEndpoint, s.DbPathOrURL(), logger.FieldError, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toRow(b map[string]binding) (source.JournalRow, error) {
	id, ok := b["identifier"]
	if !ok {
		return source.JournalRow{}, errors.Wrap(errors.ErrMalformedRow, "missing identifier binding")
	}
	seal, err := parseBool(b, "seal")
	if err != nil {
		return source.JournalRow{}, err
	}
	apc, err := parseBool(b, "apc")
	if err != nil {
		return source.JournalRow{}, err
	}

	row := source.JournalRow{
		Identifier: id.Value,
		Title:      b["title"].Value,
		Languages:  b["languages"].Value,
		Seal:       seal,
		License:    b["license"].Value,
		APC:        apc,
	}
	if p, ok := b["publisher"]; ok {
		row.Publisher = util.Ptr(p.Value)
	}
	return row, nil
}

func parseBool(b map[string]binding, name string) (bool, error) {
	v, ok := b[name]
	if !ok {
		return false, errors.Wrapf(errors.ErrMalformedRow, "missing %s binding", name)
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v.Value))
	if err != nil {
		return false, errors.Wrapf(errors.ErrMalformedRow, "%s is not a boolean: %q", name, v.Value)
	}
	return parsed, nil
}

// post sends a form-encoded SPARQL query or update. When out is non-nil the
// response body is decoded into it.
func (s *JournalStore) post(ctx context.Context, field, body, accept string, out any) error {
	return postForm(ctx, s.client, s.logger, s.DbPathOrURL(), field, body, accept, out)
}

func postForm(ctx context.Context, client *httpclient.Client, log *zap.SugaredLogger, endpoint, field, body, accept string, out any) error {
	if endpoint == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("graph store has no endpoint"),
			"set graph.endpoints in am.toml")
	}

	if logger.TraceEnabled() {
		log.Debugw("sparql text", logger.FieldEndpoint, endpoint, logger.FieldQuery, body)
	}

	form := url.Values{field: {body}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", formContentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return errors.WrapBackendUnavailable(err, "sparql request to "+endpoint)
	}
	defer resp.Body.Close()

	log.Debugw("sparql request",
		logger.FieldEndpoint, endpoint,
		logger.FieldOperation, field,
		"status", resp.StatusCode,
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.WrapBackendUnavailable(
			errors.Newf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			"sparql request to "+endpoint)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapBackendUnavailable(errors.Wrap(err, "failed to decode sparql results"), endpoint)
	}
	return nil
}
