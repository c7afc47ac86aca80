// Package archive persists finished processing reports under an output
// directory and serves listings, detail loads and full-text search over them.
// Each application gets its own directory holding the full report as JSON
// plus a human-readable answers.md.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve"

	"github.com/yashsmehta/auto-apply/internal/helpers"
	"github.com/yashsmehta/auto-apply/models"
)

const (
	reportFile  = "results.json"
	answersFile = "answers.md"
)

// Summary is one row of an archive listing.
type Summary struct {
	AppName        string    `json:"app_name"`
	Directory      string    `json:"directory"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	TotalQuestions int       `json:"total_questions"`
	TotalAnswers   int       `json:"total_answers"`
}

// Hit is one search result.
type Hit struct {
	Directory string  `json:"directory"`
	AppName   string  `json:"app_name"`
	Score     float64 `json:"score"`
}

// indexDoc is the flattened view of a report fed to the search index.
type indexDoc struct {
	AppName     string `json:"app_name"`
	ProgramName string `json:"program_name"`
	Questions   string `json:"questions"`
	Answers     string `json:"answers"`
}

// Archive writes reports to disk and keeps a memory-only search index over
// them. The index is rebuilt from disk at construction, so restarts only
// lose search latency, never data.
type Archive struct {
	dir    string
	logger *log.Logger

	mu    sync.RWMutex
	index bleve.Index
	names map[string]string
}

// New opens (and if needed creates) the archive rooted at dir and indexes
// every report already on disk.
func New(dir string, logger *log.Logger) (*Archive, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[ARCHIVE] ", log.LstdFlags)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive dir: %w", err)
	}
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	a := &Archive{dir: dir, logger: logger, index: index, names: make(map[string]string)}
	if err := a.rebuild(); err != nil {
		return nil, err
	}
	return a, nil
}

// Save writes report to <dir>/<sanitized app name>/ and indexes it. The
// answers markdown is regenerated on every save.
func (a *Archive) Save(report models.ProcessingReport) (string, error) {
	name := helpers.SanitizeFilename(report.AppName)
	appDir := filepath.Join(a.dir, name)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", fmt.Errorf("creating report dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(appDir, reportFile), data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	if err := os.WriteFile(filepath.Join(appDir, answersFile), []byte(answersMarkdown(report)), 0o644); err != nil {
		return "", fmt.Errorf("writing answers: %w", err)
	}

	if err := a.indexReport(name, report); err != nil {
		return "", err
	}
	a.logger.Printf("saved report for %q to %s", report.AppName, appDir)
	return appDir, nil
}

// List scans the archive and returns a summary per saved report, newest
// first. Directories without a readable report are skipped.
func (a *Archive) List() ([]Summary, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("reading archive dir: %w", err)
	}
	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		report, err := a.Load(entry.Name())
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			AppName:        report.AppName,
			Directory:      entry.Name(),
			Status:         report.Status,
			Timestamp:      report.Timestamp,
			TotalQuestions: report.TotalQuestions,
			TotalAnswers:   report.TotalAnswers,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Timestamp.After(summaries[j].Timestamp)
	})
	return summaries, nil
}

// Load returns the saved report for name (an app name or its directory
// form). Missing reports yield models.ErrReportNotFound.
func (a *Archive) Load(name string) (models.ProcessingReport, error) {
	path := filepath.Join(a.dir, helpers.SanitizeFilename(name), reportFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.ProcessingReport{}, models.ErrReportNotFound
		}
		return models.ProcessingReport{}, fmt.Errorf("reading report: %w", err)
	}
	var report models.ProcessingReport
	if err := json.Unmarshal(data, &report); err != nil {
		return models.ProcessingReport{}, fmt.Errorf("decoding report %s: %w", path, err)
	}
	return report, nil
}

// AnswersMarkdown returns the rendered answers document for name, or "" when
// none was saved.
func (a *Archive) AnswersMarkdown(name string) string {
	data, err := os.ReadFile(filepath.Join(a.dir, helpers.SanitizeFilename(name), answersFile))
	if err != nil {
		return ""
	}
	return string(data)
}

// Search runs a query-string search over indexed reports and returns up to
// k hits.
func (a *Archive) Search(query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 10
	}
	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(query), k, 0, false)

	a.mu.RLock()
	defer a.mu.RUnlock()
	res, err := a.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}
	hits := make([]Hit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		hits = append(hits, Hit{Directory: hit.ID, AppName: a.names[hit.ID], Score: hit.Score})
	}
	return hits, nil
}

func (a *Archive) rebuild() error {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return fmt.Errorf("reading archive dir: %w", err)
	}
	indexed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		report, err := a.Load(entry.Name())
		if err != nil {
			continue
		}
		if err := a.indexReport(entry.Name(), report); err != nil {
			return err
		}
		indexed++
	}
	if indexed > 0 {
		a.logger.Printf("indexed %d saved reports", indexed)
	}
	return nil
}

func (a *Archive) indexReport(directory string, report models.ProcessingReport) error {
	doc := indexDoc{
		AppName:     report.AppName,
		ProgramName: programName(report.ApplicationInfo),
		Questions:   joinField(report.Questions, "question"),
		Answers:     joinField(report.Answers, "answer"),
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.index.Index(directory, doc); err != nil {
		return fmt.Errorf("indexing report: %w", err)
	}
	a.names[directory] = report.AppName
	return nil
}

// answersMarkdown renders the human-readable answers document.
func answersMarkdown(report models.ProcessingReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Answers for %s\n\n", report.AppName)
	fmt.Fprintf(&b, "Generated on: %s\n\n", report.Timestamp.Format(time.RFC3339))
	for i, item := range report.Answers {
		qa, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## Question %d\n", i+1)
		fmt.Fprintf(&b, "**%s**\n\n", stringField(qa, "question"))
		fmt.Fprintf(&b, "%s\n\n", stringField(qa, "answer"))
		b.WriteString("---\n\n")
	}
	return b.String()
}

func programName(info interface{}) string {
	m, ok := info.(map[string]interface{})
	if !ok {
		return ""
	}
	return stringField(m, "program_name")
}

func stringField(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func joinField(items []interface{}, key string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if s := stringField(m, key); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
