// Package main provides a performance benchmarking tool for the livemeasure CLI.
// It generates synthetic datasets of increasing size, imports each into a fresh
// SQLite store and times refresh runs, treating the first run as cold (every
// measure is written) and averaging the rest as warm (nothing changes),
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - livemeasure binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated datasets and SQLite files
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/livemeasure/internal/fixture"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset  string
	Workers  int
	ColdTime string
	WarmTime string
}

// DatasetShape describes one synthetic dataset.
type DatasetShape struct {
	Name           string
	Projects       int
	DirsPerProject int
	FilesPerDir    int
	IssuesPerFile  int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	WorkerSets  []int
	RefreshRuns int
	Shapes      []DatasetShape
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		WorkerSets:  []int{1, 4, 14},
		RefreshRuns: 4,
		Shapes: []DatasetShape{
			{Name: "small", Projects: 2, DirsPerProject: 3, FilesPerDir: 10, IssuesPerFile: 3},
			{Name: "medium", Projects: 8, DirsPerProject: 10, FilesPerDir: 25, IssuesPerFile: 5},
			{Name: "large", Projects: 20, DirsPerProject: 25, FilesPerDir: 40, IssuesPerFile: 8},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the livemeasure binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("livemeasure"); err != nil {
		return fmt.Errorf("livemeasure binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// runBenchmarks executes the refresh benchmark for every dataset shape and worker count
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, workers %v, %d refresh runs\n",
		len(config.Shapes), config.Timeout, config.WorkerSets, config.RefreshRuns)

	for _, shape := range config.Shapes {
		datasetPath := filepath.Join(config.WorkDir, shape.Name+".yaml")
		if err := writeDataset(shape, datasetPath); err != nil {
			fmt.Printf("Skipping %s: %v\n", shape.Name, err)
			continue
		}
		fmt.Printf("Benchmarking %s (%d files)\n", shape.Name, shape.Projects*shape.DirsPerProject*shape.FilesPerDir)

		for _, workers := range config.WorkerSets {
			results = append(results, runBenchmarkSuite(config, shape, datasetPath, workers))
		}
	}

	return results
}

// runBenchmarkSuite imports the dataset into a fresh store and times the refresh runs
func runBenchmarkSuite(config BenchmarkConfig, shape DatasetShape, datasetPath string, workers int) BenchmarkResult {
	fmt.Printf("Running refresh on %s with %d workers\n", shape.Name, workers)

	dbPath := filepath.Join(config.WorkDir, fmt.Sprintf("%s_%d.db", shape.Name, workers))
	_ = os.Remove(dbPath)
	env := []string{
		"LIVEMEASURE_DATABASE_BACKEND=sqlite",
		"LIVEMEASURE_DATABASE_CONNECT=" + dbPath,
	}

	result := BenchmarkResult{Dataset: shape.Name, Workers: workers, ColdTime: "FAILED", WarmTime: "FAILED"}
	if output, err := runLivemeasure(config, env, "import", datasetPath); err != nil {
		fmt.Printf("  Import failed: %v\nOutput: %s\n", err, string(output))
		return result
	}

	coldTime, warmTimes := runBenchmark(config, env, workers)
	if coldTime > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", coldTime)
	}
	if len(warmTimes) > 0 {
		var sum float64
		for _, t := range warmTimes {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(warmTimes)))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
	return result
}

// runBenchmark executes refresh multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, env []string, workers int) (coldTime float64, warmTimes []float64) {
	args := []string{"refresh", "--workers", fmt.Sprint(workers)}

	var times []float64
	for run := 1; run <= config.RefreshRuns; run++ {
		start := time.Now()
		output, err := runLivemeasure(config, env, args...)
		if err == nil && isSuccess(output) {
			times = append(times, time.Since(start).Seconds())
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// runLivemeasure runs the binary with a timeout and returns its combined output
func runLivemeasure(config BenchmarkConfig, env []string, args ...string) ([]byte, error) {
	cmd := exec.Command("livemeasure", args...)
	cmd.Env = append(os.Environ(), env...)

	done := make(chan bool)
	var output []byte
	var cmdErr error

	go func() {
		output, cmdErr = cmd.CombinedOutput()
		done <- true
	}()

	select {
	case <-done:
		return output, cmdErr
	case <-time.After(config.Timeout):
		_ = cmd.Process.Kill()
		<-done
		return output, fmt.Errorf("timed out after %v", config.Timeout)
	}
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Refresh completed in") &&
		strings.Contains(outputStr, "workers")
}

// writeDataset generates the YAML dataset of a shape. Every file carries a
// mix of issue types, half of them in the leak period.
func writeDataset(shape DatasetShape, path string) error {
	const analysisAt = int64(1760000000000)
	const periodDate = int64(1757000000000)
	issueTypes := []string{"CODE_SMELL", "BUG", "VULNERABILITY", "CODE_SMELL", "SECURITY_HOTSPOT"}
	severities := []string{"INFO", "MINOR", "MAJOR", "CRITICAL", "BLOCKER"}

	devCost := func(v float64) []fixture.MeasureSpec {
		return []fixture.MeasureSpec{{Metric: "development_cost", Value: &v}}
	}

	doc := fixture.File{
		Gates: []fixture.GateSpec{{
			Name:    "benchmark",
			Default: true,
			Conditions: []fixture.ConditionSpec{
				{Metric: "new_bugs", Op: "GT", Error: "0", OnLeak: true},
				{Metric: "sqale_rating", Op: "GT", Error: "3"},
			},
		}},
	}

	for p := range shape.Projects {
		period := periodDate
		projectKey := fmt.Sprintf("bench:p%d", p)
		project := fixture.ProjectSpec{
			ComponentSpec: fixture.ComponentSpec{Key: projectKey},
			Analysis:      &fixture.AnalysisSpec{CreatedAt: analysisAt, PeriodDate: &period},
		}
		for d := range shape.DirsPerProject {
			dir := fixture.ComponentSpec{Key: fmt.Sprintf("%s:src/d%d", projectKey, d)}
			for f := range shape.FilesPerDir {
				file := fixture.ComponentSpec{
					Key:      fmt.Sprintf("%s:src/d%d/f%d.go", projectKey, d, f),
					Measures: devCost(3000),
				}
				for i := range shape.IssuesPerFile {
					n := d + f + i
					created := periodDate - 1000
					if n%2 == 0 {
						created = periodDate + 1000
					}
					file.Issues = append(file.Issues, fixture.IssueSpec{
						Type:      issueTypes[n%len(issueTypes)],
						Severity:  severities[n%len(severities)],
						Effort:    float64(5 * (n%6 + 1)),
						CreatedAt: created,
					})
				}
				dir.Children = append(dir.Children, file)
			}
			dir.Measures = devCost(float64(3000 * shape.FilesPerDir))
			project.Children = append(project.Children, dir)
		}
		project.Measures = devCost(float64(3000 * shape.FilesPerDir * shape.DirsPerProject))
		doc.Projects = append(doc.Projects, project)
	}

	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/livemeasure_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"dataset", "workers", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, fmt.Sprint(result.Workers), result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s workers=%-3d Cold: %s, Warm: %s\n", result.Dataset, result.Workers, result.ColdTime, result.WarmTime)
	}
}
