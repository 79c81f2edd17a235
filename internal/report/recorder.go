package report

import (
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

// queueSize bounds how many events can wait for the owner goroutine. Page
// events arriving while it is full are dropped and counted.
const queueSize = 4096

// state is only ever touched by the owner goroutine.
type state struct {
	report  models.SessionReport
	visited map[string]struct{}
	sealed  bool
	dropped int
}

type op func(s *state)

// Recorder owns the SessionReport of one session. Producers never touch the
// report directly: every append or query is an op executed by the owner
// goroutine, so the screenshot, navigation, interaction and capture tasks
// cannot race on it.
type Recorder struct {
	logger *zap.Logger
	now    func() time.Time

	ops  chan op
	quit chan struct{}
	done chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	st        *state

	overflow atomic.Int64
}

// NewRecorder creates a recorder whose visited set is seeded with startURL.
func NewRecorder(id, startURL string, logger *zap.Logger) *Recorder {
	origin := startURL
	if u, err := url.Parse(startURL); err == nil && u.Scheme != "" {
		origin = u.Scheme + "://" + u.Host
	}
	st := &state{
		report: models.SessionReport{
			ID:          id,
			StartURL:    startURL,
			Origin:      origin,
			Errors:      []models.ErrorRecord{},
			Console:     []models.ConsoleRecord{},
			Visited:     []string{startURL},
			Screenshots: []models.Screenshot{},
		},
		visited: map[string]struct{}{startURL: {}},
	}
	return &Recorder{
		logger: logger.Named("recorder"),
		now:    time.Now,
		ops:    make(chan op, queueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		st:     st,
	}
}

// WithClock replaces the clock used to stamp records. Call before Start.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Start launches the owner goroutine.
func (r *Recorder) Start() {
	r.startOnce.Do(func() {
		r.st.report.StartedAt = r.now()
		go r.loop()
	})
}

func (r *Recorder) loop() {
	defer close(r.done)
	for {
		select {
		case fn := <-r.ops:
			fn(r.st)
		case <-r.quit:
			return
		}
	}
}

// submit hands fn to the owner. It reports false once the recorder is closed.
func (r *Recorder) submit(fn op) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.ops <- fn:
		return true
	case <-r.done:
		return false
	}
}

// trySubmit is submit without waiting: when the queue is full fn is
// dropped and counted. It never blocks, so CDP event listeners can use it.
func (r *Recorder) trySubmit(fn op) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.ops <- fn:
		return true
	default:
		r.overflow.Add(1)
		return false
	}
}

// Overflowed returns how many console and error records were dropped
// because the queue was full.
func (r *Recorder) Overflowed() int64 {
	return r.overflow.Load()
}

// query runs fn on the owner and waits for it to finish.
func (r *Recorder) query(fn op) bool {
	reply := make(chan struct{})
	if !r.submit(func(s *state) {
		fn(s)
		close(reply)
	}) {
		return false
	}
	select {
	case <-reply:
		return true
	case <-r.done:
		return false
	}
}

// AddError appends an uncaught page error, stamped with the current time.
// It never blocks.
func (r *Recorder) AddError(rec models.ErrorRecord) {
	r.trySubmit(func(s *state) {
		if s.sealed {
			s.dropped++
			return
		}
		rec.Kind = "error"
		rec.Time = r.now()
		s.report.Errors = append(s.report.Errors, rec)
	})
}

// AddConsole appends a console record, stamped with the current time.
// It never blocks.
func (r *Recorder) AddConsole(rec models.ConsoleRecord) {
	r.trySubmit(func(s *state) {
		if s.sealed {
			s.dropped++
			return
		}
		rec.Time = r.now()
		s.report.Console = append(s.report.Console, rec)
	})
}

// AddScreenshot appends a capture, stamped with the current time.
func (r *Recorder) AddScreenshot(shot models.Screenshot) {
	r.submit(func(s *state) {
		if s.sealed {
			s.dropped++
			return
		}
		shot.Time = r.now()
		s.report.Screenshots = append(s.report.Screenshots, shot)
	})
}

// Visit adds u to the visited set and reports whether it was new.
func (r *Recorder) Visit(u string) bool {
	var added bool
	r.query(func(s *state) {
		if s.sealed {
			return
		}
		if _, ok := s.visited[u]; ok {
			return
		}
		s.visited[u] = struct{}{}
		s.report.Visited = append(s.report.Visited, u)
		added = true
	})
	return added
}

// Unvisited filters candidates down to those not yet visited, keeping order.
func (r *Recorder) Unvisited(candidates []string) []string {
	var out []string
	r.query(func(s *state) {
		for _, c := range candidates {
			if _, ok := s.visited[c]; !ok {
				out = append(out, c)
			}
		}
	})
	return out
}

// Seal stops accepting appends. Everything submitted before Seal is kept.
func (r *Recorder) Seal() {
	r.query(func(s *state) {
		s.sealed = true
	})
}

// Close seals the recorder, stops the owner goroutine and returns the final report.
func (r *Recorder) Close() *models.SessionReport {
	r.closeOnce.Do(func() {
		r.Start()
		r.Seal()
		close(r.quit)
		<-r.done
		r.st.report.FinishedAt = r.now()
		if r.st.dropped > 0 {
			r.logger.Debug("Dropped records submitted after the session ended.", zap.Int("count", r.st.dropped))
		}
		if n := r.overflow.Load(); n > 0 {
			r.logger.Warn("Dropped page events while the recorder queue was full.", zap.Int64("count", n))
		}
	})
	report := r.st.report
	return &report
}
