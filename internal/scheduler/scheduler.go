// Package scheduler runs the periodic jobs the pipeline depends on, chiefly
// the self-healing sweep that re-publishes kline events so stages recover
// from dropped broadcasts.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"
)

// Schedule says when a job runs.
type Schedule struct {
	kind     scheduleKind
	hour     int
	minute   int
	interval time.Duration
}

type scheduleKind int

const (
	kindDaily    scheduleKind = iota // once a day at HH:MM UTC
	kindInterval                     // every N of time
)

// DailyAt schedules a job once a day at HH:MM UTC.
func DailyAt(hour, minute int) Schedule {
	return Schedule{kind: kindDaily, hour: hour, minute: minute}
}

// Every schedules a job at a fixed interval.
func Every(d time.Duration) Schedule {
	return Schedule{kind: kindInterval, interval: d}
}

func (s Schedule) nextRun(now time.Time) time.Time {
	switch s.kind {
	case kindDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		return next
	case kindInterval:
		return now.Add(s.interval)
	default:
		return now.Add(24 * time.Hour)
	}
}

// Job is one scheduled task.
type Job struct {
	Name     string
	Schedule Schedule
	Handler  func(ctx context.Context) error

	mu      sync.Mutex
	nextRun time.Time
	lastRun time.Time
	lastErr error
	runs    int
	running bool
}

// JobStatus is a point-in-time snapshot of a job's state.
type JobStatus struct {
	Name    string
	NextRun time.Time
	LastRun time.Time
	LastErr error
	Runs    int
}

// Status snapshots the job's state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		Name:    j.Name,
		NextRun: j.nextRun,
		LastRun: j.lastRun,
		LastErr: j.lastErr,
		Runs:    j.runs,
	}
}

// Scheduler owns the application's periodic jobs.
type Scheduler struct {
	jobs     []*Job
	mu       sync.RWMutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// tickEvery is the scan resolution; it bounds how late a job can fire.
	tickEvery time.Duration
}

// New returns an empty scheduler with a 1s scan resolution.
func New() *Scheduler {
	return &Scheduler{
		stopChan:  make(chan struct{}),
		tickEvery: time.Second,
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.nextRun = job.Schedule.nextRun(time.Now().UTC())
	s.jobs = append(s.jobs, job)
	log.Printf("[scheduler] registered %q, first run at %s",
		job.Name, job.nextRun.Format(time.RFC3339))
}

// Start launches the scan loop in a background goroutine.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	log.Printf("[scheduler] started with %d jobs", len(s.jobs))
}

// Stop halts the scheduler and waits for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	log.Printf("[scheduler] stopped")
}

// Jobs reports the status of every registered job.
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	statuses := make([]JobStatus, len(jobs))
	for i, j := range jobs {
		statuses[i] = j.Status()
	}
	return statuses
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.tickEvery)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stopChan:
			return
		}
	}
}

// tick starts every job whose time has come. A job still running from its
// previous firing is skipped, not stacked.
func (s *Scheduler) tick() {
	now := time.Now().UTC()

	s.mu.RLock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.RUnlock()

	for _, job := range jobs {
		job.mu.Lock()
		due := !now.Before(job.nextRun) && !job.running
		if due {
			job.running = true
		}
		job.mu.Unlock()

		if due {
			s.wg.Add(1)
			go s.run(job)
		}
	}
}

func (s *Scheduler) run(job *Job) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	err := job.Handler(ctx)
	elapsed := time.Since(start)

	job.mu.Lock()
	job.lastRun = start
	job.lastErr = err
	job.runs++
	job.running = false
	job.nextRun = job.Schedule.nextRun(time.Now().UTC())
	job.mu.Unlock()

	if err != nil {
		log.Printf("[scheduler] job %q failed after %v: %v", job.Name, elapsed, err)
	}
}
