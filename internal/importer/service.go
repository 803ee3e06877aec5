package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bartek5186/feedsync/internal/db"
	"github.com/bartek5186/feedsync/internal/feed"
	"github.com/bartek5186/feedsync/internal/metrics"
	"github.com/rs/zerolog"
)

var (
	ErrEmptyURL = errors.New("xml file url is empty")
	ErrNoUser   = errors.New("user id is empty")
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// RunStore prowadzi historię importów; błędy tutaj tylko logujemy.
type RunStore interface {
	Store
	CreateRun(ctx context.Context, run *db.ImportRun) error
	FinishRun(ctx context.Context, run *db.ImportRun) error
	ListRuns(ctx context.Context, user string, limit int) ([]db.ImportRun, error)
}

type Request struct {
	UserID string
	URL    string
	Format feed.Format // 0 = Config.DefaultFormat
}

type Config struct {
	BatchSize     int
	Concurrency   int
	DefaultFormat feed.Format
	Locale        string
}

type Service struct {
	fetcher    Fetcher
	store      RunStore
	log        zerolog.Logger
	cfg        Config
	reconciler *Reconciler
}

func NewService(fetcher Fetcher, store RunStore, log zerolog.Logger, cfg Config) *Service {
	if cfg.DefaultFormat == 0 {
		cfg.DefaultFormat = feed.FormatGoogleMerchant
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return &Service{
		fetcher:    fetcher,
		store:      store,
		log:        log,
		cfg:        cfg,
		reconciler: NewReconciler(store, log, WithBatchSize(cfg.BatchSize), WithConcurrency(cfg.Concurrency)),
	}
}

// Import: pobranie i parsowanie są fatalne (zwracają błąd), od zapisu
// w bazie wszystko ląduje w ImportResult.Errors.
func (s *Service) Import(ctx context.Context, req Request) (*ImportResult, error) {
	url := strings.TrimSpace(req.URL)
	user := strings.TrimSpace(req.UserID)
	if url == "" {
		return nil, ErrEmptyURL
	}
	if user == "" {
		return nil, ErrNoUser
	}
	format := req.Format
	if format == 0 {
		format = s.cfg.DefaultFormat
	}
	parser, err := feed.ParserFor(format, feed.Options{Locale: s.cfg.Locale})
	if err != nil {
		return nil, err
	}

	log := s.log.With().Str("user", user).Str("url", url).Str("format", format.String()).Logger()
	start := time.Now()

	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.RecordImport(format.String(), "fetch_error", 0)
		log.Error().Err(err).Msg("fetch failed")
		return nil, fmt.Errorf("fetch: %w", err)
	}

	parsed, err := parser.Parse(data, url, start)
	if err != nil {
		metrics.RecordImport(format.String(), "format_error", 0)
		log.Error().Err(err).Int("bytes", len(data)).Msg("parse failed")
		return nil, fmt.Errorf("parse: %w", err)
	}
	log.Info().
		Int("categories", len(parsed.ProductCategories)).
		Int("products", len(parsed.Products)).
		Int("attribute_names", len(parsed.Attributes)).
		Msg("feed parsed")

	sum := sha256.Sum256(data)
	run := &db.ImportRun{
		User:      user,
		SourceURL: url,
		Format:    format.String(),
		SHA256:    hex.EncodeToString(sum[:]),
		SizeBytes: int64(len(data)),
		Status:    db.RunRunning,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("cannot create import run")
		run = nil
	}

	result := s.reconciler.Run(ctx, user, parsed, parser)
	status := runStatus(result)

	if run != nil {
		s.finish(ctx, log, run, result, status)
	}

	metrics.RecordImport(format.String(), status, time.Since(start))
	metrics.RecordRows("category", "insert", result.Stats.InsertedProductCategories)
	metrics.RecordRows("category", "update", result.Stats.UpdatedProductCategories)
	metrics.RecordRows("product", "insert", result.Stats.InsertedProducts)
	metrics.RecordRows("product", "update", result.Stats.UpdatedProducts)

	log.Info().
		Str("status", status).
		Bool("success", result.ImportSuccess).
		Dur("took", time.Since(start)).
		Msg("import finished")
	return result, nil
}

func (s *Service) finish(ctx context.Context, log zerolog.Logger, run *db.ImportRun, result *ImportResult, status string) {
	now := time.Now()
	run.Status = status
	run.InsertedProductCategories = result.Stats.InsertedProductCategories
	run.UpdatedProductCategories = result.Stats.UpdatedProductCategories
	run.InsertedProducts = result.Stats.InsertedProducts
	run.UpdatedProducts = result.Stats.UpdatedProducts
	run.FinishedAt = &now
	if len(result.Errors) > 0 {
		if b, err := json.Marshal(result.Errors); err == nil {
			run.Errors = string(b)
		}
	}
	// zapis historii nie może zależeć od anulowanego żądania
	if err := s.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn().Err(err).Uint("run", run.ID).Msg("cannot finish import run")
	}
}

// Runs zwraca ostatnie importy tenanta.
func (s *Service) Runs(ctx context.Context, user string, limit int) ([]db.ImportRun, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, ErrNoUser
	}
	return s.store.ListRuns(ctx, user, limit)
}

func runStatus(r *ImportResult) string {
	if r.ImportSuccess {
		return db.RunDone
	}
	s := r.Stats
	if s.InsertedProductCategories+s.UpdatedProductCategories+s.InsertedProducts+s.UpdatedProducts > 0 {
		return db.RunPartial
	}
	return db.RunFailed
}
