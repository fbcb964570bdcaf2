// Package loadtest provides load testing utilities for the halcom store.
//
// It seeds a database with a realistic roster and simulates concurrent
// readers running the tasks-with-people projection, which is the most
// expensive query the command interface issues.
package loadtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/halcom/halcom/internal/schema"
	"github.com/halcom/halcom/internal/store"
)

// TestDatabase represents a populated test database for load testing.
type TestDatabase struct {
	Store       *store.Store
	Emails      []string
	Tags        []string
	Assignments int
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration // Median
	P95          time.Duration
	P99          time.Duration
	TotalQueries int
	Errors       int
	Durations    []time.Duration
}

// Seed creates a test database with the given roster size.
//
// It populates numPeople people, numTasks tasks with staggered deadlines
// and weighted importance, and assigns people to tasks so roughly every
// task has a supervisor and one or two members. A fixed random seed
// keeps runs reproducible.
func Seed(dbPath string, numPeople, numTasks int) (*TestDatabase, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Support 100+ concurrent readers
	s.RawDB().SetMaxOpenConns(150)
	s.RawDB().SetMaxIdleConns(50)
	s.RawDB().SetConnMaxLifetime(10 * time.Minute)

	ctx := context.Background()
	if err := s.InitSchema(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	td := &TestDatabase{
		Store:  s,
		Emails: make([]string, 0, numPeople),
		Tags:   make([]string, 0, numTasks),
	}

	for i := 0; i < numPeople; i++ {
		email := fmt.Sprintf("agent%04d@loadtest.local", i)
		if _, err := s.AddPerson(ctx, fmt.Sprintf("Agent %04d", i), email); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to insert person %s: %w", email, err)
		}
		td.Emails = append(td.Emails, email)
	}

	// Importance distribution: weighted toward the default
	importances := []int{1, 2, 3, 3, 3, 3, 4, 4, 5, 5}
	baseDay := time.Now().AddDate(0, 0, -15)

	for i := 0; i < numTasks; i++ {
		tag := fmt.Sprintf("#load%05d", i)
		task := &schema.Task{
			Title:       fmt.Sprintf("Load task %d", i),
			Description: "Synthetic task for load testing",
			Tag:         tag,
			Deadline:    baseDay.AddDate(0, 0, i%30).Format(schema.DeadlineLayout),
			Importance:  importances[i%len(importances)],
			Completed:   i%7 == 0,
		}
		if err := s.AddTask(ctx, task); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to insert task %s: %w", tag, err)
		}
		td.Tags = append(td.Tags, tag)
	}

	// Fixed seed for reproducibility
	rng := rand.New(rand.NewSource(42))

	if numPeople > 0 {
		for _, tag := range td.Tags {
			supervisor := td.Emails[rng.Intn(numPeople)]
			if err := s.Link(ctx, supervisor, tag, schema.RoleSupervisor); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("failed to link supervisor to %s: %w", tag, err)
			}

			members := 1 + rng.Intn(2)
			for j := 0; j < members; j++ {
				member := td.Emails[rng.Intn(numPeople)]
				if err := s.Link(ctx, member, tag, schema.RoleMember); err != nil {
					_ = s.Close()
					return nil, fmt.Errorf("failed to link member to %s: %w", tag, err)
				}
			}
		}
	}

	// Linking is idempotent, so the rng can pick the same member twice
	// for one task without creating a second row. Count what actually
	// landed rather than the attempts.
	stats, err := s.GetStats(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to count assignments: %w", err)
	}
	td.Assignments = stats.Assignments

	return td, nil
}

// Close closes the test database connection.
func (td *TestDatabase) Close() error {
	if td.Store != nil {
		return td.Store.Close()
	}
	return nil
}

// RunConcurrentQueries simulates N concurrent readers running the
// tasks-with-people projection.
//
// Each reader performs queriesPerReader queries, recording latency for
// each. Returns aggregated latency statistics.
func (td *TestDatabase) RunConcurrentQueries(numReaders, queriesPerReader int) (*LatencyStats, error) {
	var wg sync.WaitGroup
	var errorCount int

	resultsChan := make(chan []time.Duration, numReaders)
	errorsChan := make(chan error, numReaders)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			durations := make([]time.Duration, 0, queriesPerReader)
			ctx := context.Background()

			for j := 0; j < queriesPerReader; j++ {
				start := time.Now()
				_, err := td.Store.TasksWithPeople(ctx)
				durations = append(durations, time.Since(start))

				if err != nil {
					errorsChan <- fmt.Errorf("reader %d query %d failed: %w", readerID, j, err)
					return
				}
			}

			resultsChan <- durations
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	for err := range errorsChan {
		if err != nil {
			errorCount++
		}
	}

	var allDurations []time.Duration
	for durations := range resultsChan {
		allDurations = append(allDurations, durations...)
	}

	if len(allDurations) == 0 {
		return nil, fmt.Errorf("no successful queries completed")
	}

	stats := computeLatencyStats(allDurations)
	stats.Errors = errorCount

	return stats, nil
}

// VerifyConsistency runs concurrent readers for the given duration and
// checks that every projection row is well formed.
func (td *TestDatabase) VerifyConsistency(numReaders int, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	errorsChan := make(chan error, numReaders)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				default:
					views, err := td.Store.TasksWithPeople(ctx)
					if err != nil && ctx.Err() == nil {
						errorsChan <- fmt.Errorf("reader %d query failed: %w", readerID, err)
						return
					}

					for _, v := range views {
						if v.Tag == "" {
							errorsChan <- fmt.Errorf("reader %d found task with empty tag", readerID)
							return
						}
						for _, p := range v.People {
							if p.Role != schema.RoleSupervisor && p.Role != schema.RoleMember {
								errorsChan <- fmt.Errorf("reader %d found invalid role %q on %s", readerID, p.Role, v.Tag)
								return
							}
						}
					}

					// Small sleep to avoid hammering
					time.Sleep(1 * time.Millisecond)
				}
			}
		}(i)
	}

	wg.Wait()
	close(errorsChan)

	for err := range errorsChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	mean := sum / time.Duration(len(durations))

	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[len(sorted)*95/100]
	p99 := sorted[len(sorted)*99/100]

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         mean,
		P50:          p50,
		P95:          p95,
		P99:          p99,
		TotalQueries: len(durations),
		Durations:    sorted,
	}
}

// Format returns the statistics rendered as a multi-line report.
func (s *LatencyStats) Format() string {
	return fmt.Sprintf(`Latency Statistics:
  Total Queries: %d
  Errors:        %d
  Min:           %v
  P50 (Median):  %v
  Mean:          %v
  P95:           %v
  P99:           %v
  Max:           %v
`, s.TotalQueries, s.Errors, s.Min, s.P50, s.Mean, s.P95, s.P99, s.Max)
}
