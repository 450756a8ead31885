package commands

import (
	"go.uber.org/zap"

	"github.com/teranos/scholarfed/am"
	"github.com/teranos/scholarfed/engine"
	"github.com/teranos/scholarfed/graphstore"
	"github.com/teranos/scholarfed/internal/httpclient"
	"github.com/teranos/scholarfed/logger"
	"github.com/teranos/scholarfed/relational"
)

// loadConfig is replaced in tests
var loadConfig = am.Load

// graphClient builds the HTTP client for one SPARQL endpoint. Each endpoint
// gets its own client so rate limits apply per endpoint.
func graphClient(cfg *am.Config) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		Timeout:           cfg.Graph.Timeout(),
		RequestsPerSecond: cfg.Graph.RequestsPerSecond,
		AllowPrivate:      cfg.Graph.AllowPrivate,
	})
}

// BuildEngine registers one journal handler per graph endpoint and one
// category handler per database path. The returned func closes the
// databases the handlers opened.
func BuildEngine(cfg *am.Config, log *zap.SugaredLogger) (*engine.FullQueryEngine, func()) {
	e := engine.NewFullQueryEngine(engine.Config{
		ParallelFanout: cfg.Engine.ParallelFanout,
		MaxConcurrency: cfg.Engine.MaxConcurrency,
	}, log)

	for _, endpoint := range cfg.Graph.Endpoints {
		store := graphstore.NewJournalStore(endpoint, graphClient(cfg), log)
		if store.DbPathOrURL() == "" {
			log.Warnw("skipping graph endpoint refused by client policy", logger.FieldEndpoint, endpoint)
			continue
		}
		e.AddJournalHandler(store)
	}

	var stores []*relational.CategoryStore
	for _, path := range cfg.Database.Paths {
		store := relational.NewCategoryStore(path, log)
		stores = append(stores, store)
		e.AddCategoryHandler(store)
	}

	return e, func() {
		for _, s := range stores {
			if err := s.Close(); err != nil {
				log.Warnw("failed to close classification store", logger.FieldPath, s.DbPathOrURL(), logger.FieldError, err)
			}
		}
	}
}
