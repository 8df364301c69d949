package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/mikeboe/deep-researcher/pkg/database"
	"github.com/mikeboe/deep-researcher/pkg/research"
)

// Service runs research jobs in background workers and persists their
// status, event stream, and logs.
type Service struct {
	DB     *database.PostgresDB
	LLM    llms.Model
	Search research.SearchProvider
	Cfg    research.Config
}

func NewService(db *database.PostgresDB, llm llms.Model, search research.SearchProvider, cfg research.Config) *Service {
	return &Service{
		DB:     db,
		LLM:    llm,
		Search: search,
		Cfg:    cfg,
	}
}

type Job struct {
	ID        uuid.UUID       `json:"id"`
	Topic     string          `json:"topic"`
	Status    string          `json:"status"`
	Report    *string         `json:"report,omitempty"`
	Error     *string         `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Config    json.RawMessage `json:"config"`
}

type CreateJobRequest struct {
	Topic string `json:"topic"`
}

func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*Job, error) {
	configJSON, _ := json.Marshal(map[string]interface{}{
		"max_web_research_loops": s.Cfg.MaxWebResearchLoops,
		"fetch_full_page":        s.Cfg.FetchFullPage,
		"use_tool_calling":       s.Cfg.UseToolCalling,
	})

	jobID := uuid.New()
	query := `
		INSERT INTO research_jobs (id, topic, status, config)
		VALUES ($1, $2, 'pending', $3)
		RETURNING id, topic, status, created_at, updated_at
	`

	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, jobID, req.Topic, configJSON).Scan(
		&job.ID, &job.Topic, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	// Start background worker
	go s.runWorker(job.ID, req.Topic)

	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `
		SELECT id, topic, status, report, error, created_at, updated_at, config
		FROM research_jobs
		WHERE id = $1
	`
	job := &Job{}
	err := s.DB.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Topic, &job.Status, &job.Report, &job.Error, &job.CreatedAt, &job.UpdatedAt, &job.Config,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context) ([]Job, error) {
	query := `
		SELECT id, topic, status, report, error, created_at, updated_at, config
		FROM research_jobs
		ORDER BY created_at DESC
		LIMIT 50
	`
	rows, err := s.DB.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var job Job
		if err := rows.Scan(&job.ID, &job.Topic, &job.Status, &job.Report, &job.Error, &job.CreatedAt, &job.UpdatedAt, &job.Config); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// JobEvent is one stored StepEvent of a job's run.
type JobEvent struct {
	Seq       int       `json:"seq"`
	Stage     string    `json:"stage"`
	Thinking  string    `json:"thinking,omitempty"`
	Query     string    `json:"query,omitempty"`
	Sources   string    `json:"sources,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	LoopCount int       `json:"loop_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) GetJobEvents(ctx context.Context, jobID uuid.UUID) ([]JobEvent, error) {
	query := `
		SELECT seq, stage, COALESCE(thinking, ''), COALESCE(query, ''), COALESCE(sources, ''), COALESCE(summary, ''), loop_count, created_at
		FROM research_events
		WHERE job_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []JobEvent
	for rows.Next() {
		var ev JobEvent
		if err := rows.Scan(&ev.Seq, &ev.Stage, &ev.Thinking, &ev.Query, &ev.Sources, &ev.Summary, &ev.LoopCount, &ev.CreatedAt); err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

type LogEntry struct {
	ID        int             `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (s *Service) GetJobLogs(ctx context.Context, jobID uuid.UUID) ([]LogEntry, error) {
	query := `
		SELECT id, timestamp, level, message, metadata
		FROM research_logs
		WHERE job_id = $1
		ORDER BY id ASC
	`
	rows, err := s.DB.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.Level, &l.Message, &l.Metadata); err != nil {
			continue
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Service) runWorker(jobID uuid.UUID, topic string) {
	ctx := context.Background()

	// Update status to running
	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'running', updated_at = NOW() WHERE id = $1", jobID)

	// Engine logs go to the job's log table
	dbLogger := slog.New(NewDBLogHandler(s.DB, jobID))

	engine, err := research.NewEngine(s.LLM, s.Search, s.Cfg)
	if err != nil {
		s.failJob(ctx, jobID, fmt.Sprintf("Failed to init engine: %v", err))
		return
	}
	engine.Logger = dbLogger

	run := engine.Start(ctx, topic)
	seq := 0
	for ev := range run.Events() {
		seq++
		_, err := s.DB.Pool.Exec(ctx, `
			INSERT INTO research_events (job_id, seq, stage, thinking, query, sources, summary, loop_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			jobID, seq, string(ev.Stage), ev.Thinking, ev.Query, ev.Sources, ev.Summary, ev.LoopCount)
		if err != nil {
			dbLogger.Error("Failed to persist event", "stage", ev.Stage, "error", err)
		}
	}

	result, err := run.Result()
	if err != nil {
		var ce *research.ConfigurationError
		var pe *research.ProviderError
		switch {
		case errors.As(err, &ce), errors.As(err, &pe):
			s.failJob(ctx, jobID, err.Error())
		default:
			s.failJob(ctx, jobID, fmt.Sprintf("Research failed: %v", err))
		}
		return
	}

	// Update job with report
	_, err = s.DB.Pool.Exec(ctx,
		"UPDATE research_jobs SET status = 'completed', report = $2, updated_at = NOW() WHERE id = $1",
		jobID, result.RunningSummary)
	if err != nil {
		dbLogger.Error("Failed to save final report to DB", "error", err)
	}
}

func (s *Service) failJob(ctx context.Context, jobID uuid.UUID, reason string) {
	// Log the failure
	dbLogger := slog.New(NewDBLogHandler(s.DB, jobID))
	dbLogger.Error(reason)

	// Update status
	_, _ = s.DB.Pool.Exec(ctx, "UPDATE research_jobs SET status = 'failed', error = $2, updated_at = NOW() WHERE id = $1", jobID, reason)
}
