package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/logger"
)

type documentSource interface {
	ListKeys(ctx context.Context) ([]string, error)
	Load(ctx context.Context, key string) ([]byte, error)
}

type finding struct {
	CourseKey string
	Err       error
}

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "overall audit timeout")
	flag.Parse()

	os.Exit(run(timeout))
}

func run(timeout time.Duration) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 2
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 2
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Error("failed to connect postgres", zap.Error(err))
		return 2
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	checked, findings, err := audit(ctx, repository.NewGradebookRepository(db))
	if err != nil {
		logr.Error("audit aborted", zap.Error(err))
		return 2
	}
	return summarize(os.Stdout, logr, checked, findings)
}

// summarize reports the audit result and returns the process exit code.
func summarize(w io.Writer, logr *zap.Logger, checked int, findings []finding) int {
	for _, f := range findings {
		logr.Error("gradebook document rejected", zap.String("course_key", f.CourseKey), zap.Error(f.Err))
	}
	fmt.Fprintf(w, "Checked: %d, Rejected: %d\n", checked, len(findings))
	if len(findings) > 0 {
		return 1
	}
	return 0
}

// audit decodes every stored document and returns the ones that fail.
func audit(ctx context.Context, source documentSource) (int, []finding, error) {
	keys, err := source.ListKeys(ctx)
	if err != nil {
		return 0, nil, err
	}
	var findings []finding
	for _, key := range keys {
		document, err := source.Load(ctx, key)
		if err != nil {
			return 0, nil, fmt.Errorf("load %s: %w", key, err)
		}
		gb, err := grading.FromStorage(document)
		if err == nil && gb.CourseKey != key {
			err = fmt.Errorf("document course key %q does not match row key", gb.CourseKey)
		}
		if err != nil {
			findings = append(findings, finding{CourseKey: key, Err: err})
		}
	}
	return len(keys), findings, nil
}
