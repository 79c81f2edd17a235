package worker

import (
	"context"
	"sync"

	"github.com/williampepple1/spa-monkey/internal/config"
	"github.com/williampepple1/spa-monkey/pkg/models"
	"go.uber.org/zap"
)

// RunFunc runs one monkey-test session against target
type RunFunc func(ctx context.Context, target string) models.Result

// Pool manages a pool of worker goroutines, each running one session at a time
type Pool struct {
	Config    *config.AppConfig
	Run       RunFunc
	Jobs      chan string
	Results   chan models.Result
	WaitGroup *sync.WaitGroup

	logger *zap.Logger
}

// NewPool creates a new worker pool sized for urls
func NewPool(config *config.AppConfig, run RunFunc, urls []string, logger *zap.Logger) *Pool {
	jobs := make(chan string, len(urls))
	results := make(chan models.Result, len(urls))
	wg := &sync.WaitGroup{}

	return &Pool{
		Config:    config,
		Run:       run,
		Jobs:      jobs,
		Results:   results,
		WaitGroup: wg,
		logger:    logger.Named("worker"),
	}
}

// Start starts the workers. Results is closed once every worker has exited.
func (p *Pool) Start(ctx context.Context) {
	workers := p.Config.Scraper.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 1; w <= workers; w++ {
		p.WaitGroup.Add(1)
		go p.worker(ctx, w)
	}

	go func() {
		p.WaitGroup.Wait()
		close(p.Results)
	}()
}

// worker takes targets from the jobs channel until it is closed or ctx ends
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.WaitGroup.Done()

	for target := range p.Jobs {
		if ctx.Err() != nil {
			p.Results <- models.Result{Target: target, Err: ctx.Err().Error()}
			continue
		}
		p.logger.Info("Worker picked up target.", zap.Int("worker", id), zap.String("target", target))
		p.Results <- p.Run(ctx, target)
	}
}

// AddJobs adds targets to the jobs channel and closes it
func (p *Pool) AddJobs(urls []string) {
	for _, url := range urls {
		p.Jobs <- url
	}
	close(p.Jobs)
}
