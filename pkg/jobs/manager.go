package jobs

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shemshallah/quantum-foam-rng/pkg/config"
	"github.com/shemshallah/quantum-foam-rng/pkg/entropy"
	"github.com/shemshallah/quantum-foam-rng/pkg/provider"
)

// Valid entanglement-angle range for CreateJob, degrees.
const (
	MinAngleDeg = 0
	MaxAngleDeg = 90
)

// Manager owns the job lifecycle. It creates records, drives each one
// through dispatch, analysis, and extraction in sequence, and is the only
// writer of job state. Readers poll through GetJob.
type Manager struct {
	store      *Store
	dispatcher *entropy.Dispatcher
	extractor  *entropy.Extractor
	cfg        config.EntropyConfig
	logger     zerolog.Logger

	mu      sync.Mutex
	baseCtx context.Context
}

// NewManager wires a manager to the given measurement provider.
func NewManager(client provider.Client, cfg config.EntropyConfig) *Manager {
	return &Manager{
		store:      NewStore(cfg.JobTTL, cfg.EvictionInterval),
		dispatcher: entropy.NewDispatcher(client, cfg.RequestTimeout, cfg.RequestAttempts),
		extractor:  entropy.NewExtractor(cfg.TargetBits, cfg.EpsilonExp, cfg.SigmaThreshold),
		cfg:        cfg,
		logger:     log.With().Str("component", "jobs.manager").Logger(),
		baseCtx:    context.Background(),
	}
}

// Start binds job processing to ctx and begins record eviction. Jobs
// created after ctx ends fail immediately with a canceled reason.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()
	m.store.StartJanitor(ctx)
}

func (m *Manager) base() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseCtx
}

// CreateJob validates the angle, allocates a pending record, and starts
// processing asynchronously. It returns the new job id immediately.
func (m *Manager) CreateJob(angleDeg float64) (string, error) {
	if angleDeg < MinAngleDeg || angleDeg > MaxAngleDeg {
		return "", &ValidationError{
			Field: "angle",
			Msg:   fmt.Sprintf("%.2f outside [%d, %d] degrees", angleDeg, MinAngleDeg, MaxAngleDeg),
		}
	}

	job := Job{
		ID:        uuid.New().String(),
		AngleDeg:  angleDeg,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	m.put(job)

	m.logger.Info().
		Str("job_id", job.ID).
		Float64("angle_deg", angleDeg).
		Msg("Job created")

	go m.process(job)
	return job.ID, nil
}

// GetJob returns the current snapshot for the id, or *NotFoundError.
func (m *Manager) GetJob(id string) (*Job, error) {
	job, ok := m.store.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return job, nil
}

// Generate runs the full pipeline synchronously, outside the job store.
// Used for one-shot command-line generation.
func (m *Manager) Generate(ctx context.Context, angleDeg float64) (*Result, error) {
	if angleDeg < MinAngleDeg || angleDeg > MaxAngleDeg {
		return nil, &ValidationError{
			Field: "angle",
			Msg:   fmt.Sprintf("%.2f outside [%d, %d] degrees", angleDeg, MinAngleDeg, MaxAngleDeg),
		}
	}
	start := time.Now()

	results, err := m.dispatcher.Dispatch(ctx, angleDeg, m.cfg.ShotsPerBasis)
	if err != nil {
		return nil, err
	}
	analysis, err := entropy.Analyze(results, m.cfg.ShotsPerBasis)
	if err != nil {
		return nil, err
	}
	key, err := m.extractor.Extract(results, analysis.Sigma)
	if err != nil {
		return nil, err
	}
	return m.buildResult(key, analysis, start), nil
}

// process drives one job through the state machine under the job-wide
// wall-clock ceiling. Every exit path leaves the job terminal.
func (m *Manager) process(job Job) {
	ctx, cancel := context.WithTimeout(m.base(), m.cfg.JobTimeout)
	defer cancel()

	start := time.Now()

	job.Status = StatusDispatching
	m.put(job)
	results, err := m.dispatcher.Dispatch(ctx, job.AngleDeg, m.cfg.ShotsPerBasis)
	if err != nil {
		m.fail(job, ctx, err)
		return
	}
	job.BasisResults = results

	job.Status = StatusAnalyzing
	m.put(job)
	analysis, err := entropy.Analyze(results, m.cfg.ShotsPerBasis)
	if err != nil {
		m.fail(job, ctx, err)
		return
	}
	job.Sigma = analysis.Sigma

	job.Status = StatusExtracting
	m.put(job)
	key, err := m.extractor.Extract(results, analysis.Sigma)
	if err != nil {
		m.fail(job, ctx, err)
		return
	}

	job.Status = StatusCompleted
	job.CompletedAt = time.Now().UTC()
	job.Result = m.buildResult(key, analysis, start)
	m.put(job)

	m.logger.Info().
		Str("job_id", job.ID).
		Float64("sigma", analysis.Sigma).
		Str("quality", key.Quality).
		Dur("elapsed", time.Since(start)).
		Msg("Job completed")
}

func (m *Manager) buildResult(key *entropy.Key, analysis entropy.Analysis, start time.Time) *Result {
	totalShots := m.cfg.ShotsPerBasis * len(entropy.Bases)

	result := &Result{
		KeyHex:                hex.EncodeToString(key.Bytes),
		Sigma:                 analysis.Sigma,
		Quality:               key.Quality,
		QualityReason:         key.QualityReason,
		GenerationTimeSeconds: time.Since(start).Seconds(),
		BasesUsed:             len(entropy.Bases),
		ShotsPerBasis:         m.cfg.ShotsPerBasis,
		TotalShots:            totalShots,
		RawBits:               key.RawBits,
		DebiasedBits:          key.DebiasedBits,
		RandomnessScore:       key.RandomnessScore(),
	}
	if key.RawBits > 0 {
		result.ExtractionRatio = float64(m.cfg.TargetBits) / float64(key.RawBits)
	}
	if key.Quality == entropy.QualityCertified {
		result.Certificate = entropy.NewCertificate(key.Bytes, analysis)
	}
	return result
}

// fail transitions the job to its terminal failed state, translating a
// ceiling overrun into a timeout reason.
func (m *Manager) fail(job Job, ctx context.Context, cause error) {
	if errors.Is(cause, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cause = &JobTimeoutError{ID: job.ID, Limit: m.cfg.JobTimeout}
	}

	job.Status = StatusFailed
	job.CompletedAt = time.Now().UTC()
	job.FailureReason = cause.Error()
	m.put(job)

	m.logger.Warn().
		Str("job_id", job.ID).
		Err(cause).
		Msg("Job failed")
}

// put stores a fresh snapshot of the working copy.
func (m *Manager) put(job Job) {
	m.store.Put(&job)
}
