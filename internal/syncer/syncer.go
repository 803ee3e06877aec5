// internal/syncer/syncer.go
package syncer

import (
	"context"
	"sync"
	"time"

	conf "github.com/bartek5186/feedsync/internal/config"
	"github.com/bartek5186/feedsync/internal/importer"
	"github.com/rs/zerolog"
)

type Importer interface {
	Import(ctx context.Context, req importer.Request) (*importer.ImportResult, error)
}

// JobState to stan zadania widoczny w konsoli / trayu.
type JobState struct {
	Name    string
	LastRun time.Time
	LastErr error
	Success bool
	Busy    bool
}

type Syncer struct {
	log     zerolog.Logger // logowanie
	imp     Importer
	mu      sync.Mutex   // ochrona sekcji krytycznych
	cfg     *conf.Config // aktualna konfiguracja
	running bool         // czy syncer działa
	cancel  context.CancelFunc
	wg      sync.WaitGroup // śledzi goroutines
	ticks   uint64         // licznik ticków
	jobs    []conf.FeedJob
	state   map[string]*JobState
	now     func() time.Time
}

func New(log zerolog.Logger, cfg *conf.Config, imp Importer) *Syncer {
	return &Syncer{
		log:   log,
		cfg:   cfg,
		imp:   imp,
		state: map[string]*JobState{},
		now:   time.Now,
	}
}

func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	jobs, err := s.loadJobsLocked()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.ticks = 0
	s.jobs = jobs
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Int("jobs", len(jobs)).Msg("Syncer: start")
	go s.loop(ctx)
	return nil
}

func (s *Syncer) loadJobsLocked() ([]conf.FeedJob, error) {
	if s.cfg == nil || s.cfg.FeedsDir == "" {
		s.log.Warn().Msg("Syncer: brak feeds_dir w configu")
		return nil, nil
	}
	all, err := conf.LoadFeeds(s.cfg.FeedsDir)
	if err != nil {
		return nil, err
	}
	var jobs []conf.FeedJob
	for _, j := range all {
		if !j.IsEnabled() {
			s.log.Info().Str("feed", j.Name).Msg("feed wyłączony – pomijam")
			continue
		}
		jobs = append(jobs, j)
		if _, ok := s.state[j.Name]; !ok {
			s.state[j.Name] = &JobState{Name: j.Name}
		}
	}
	return jobs, nil
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("Syncer: stop")
}

func (s *Syncer) UpdateConfig(cfg *conf.Config) {
	s.mu.Lock()
	s.cfg = cfg
	isRunning := s.running
	s.mu.Unlock()

	s.log.Info().Msg("Syncer: config zaktualizowany")

	if isRunning {
		// restart, żeby przeczytać feeds_dir od nowa
		s.Stop()
		if err := s.Start(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("Syncer: restart po zmianie configu nieudany")
		}
	}
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Jobs zwraca kopię stanu zadań, posortowaną jak pliki w feeds_dir.
func (s *Syncer) Jobs() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.jobs))
	for _, j := range s.jobs {
		if st, ok := s.state[j.Name]; ok {
			out = append(out, *st)
		}
	}
	return out
}

func (s *Syncer) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil && s.cfg.SyncIntervalSeconds > 0 {
		return time.Duration(s.cfg.SyncIntervalSeconds) * time.Second
	}
	return time.Minute
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	// pierwszy strzał od razu
	s.tickOnce(ctx)

	current := s.interval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Syncer: koniec pętli")
			return
		case <-ticker.C:
			if next := s.interval(); next != current {
				current = next
				ticker.Reset(current)
			}
			s.tickOnce(ctx)
		}
	}
}

// tickOnce odpala zadania, którym minął interwał. Zadanie w trakcie
// importu nie startuje drugi raz.
func (s *Syncer) tickOnce(ctx context.Context) {
	s.mu.Lock()
	s.ticks++
	n := s.ticks
	now := s.now()
	var due []conf.FeedJob
	for _, j := range s.jobs {
		st := s.state[j.Name]
		if st.Busy {
			continue
		}
		if !st.LastRun.IsZero() && now.Sub(st.LastRun) < time.Duration(j.IntervalSeconds)*time.Second {
			continue
		}
		st.Busy = true
		due = append(due, j)
	}
	s.mu.Unlock()

	s.log.Debug().Uint64("tick", n).Int("due", len(due)).Msg("Syncer: tick")

	for _, j := range due {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx, j)
		}()
	}
}

func (s *Syncer) run(ctx context.Context, j conf.FeedJob) {
	log := s.log.With().Str("feed", j.Name).Str("user", j.UserID).Logger()
	started := s.now()

	res, err := s.imp.Import(ctx, importer.Request{UserID: j.UserID, URL: j.URL, Format: j.Format})

	s.mu.Lock()
	st := s.state[j.Name]
	st.Busy = false
	st.LastRun = started
	st.LastErr = err
	st.Success = err == nil && res != nil && res.ImportSuccess
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("import z harmonogramu nieudany")
		return
	}
	log.Info().
		Bool("success", res.ImportSuccess).
		Int("errors", len(res.Errors)).
		Msg("import z harmonogramu zakończony")
}
