package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GradebookRepository stores one JSON gradebook document per course key.
type GradebookRepository struct {
	db *sqlx.DB
}

// NewGradebookRepository constructs the repository.
func NewGradebookRepository(db *sqlx.DB) *GradebookRepository {
	return &GradebookRepository{db: db}
}

type gradebookRow struct {
	ID        string    `db:"id"`
	CourseKey string    `db:"course_key"`
	Document  string    `db:"document"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Load returns the stored document for key. sql.ErrNoRows is returned
// unwrapped when the course has no gradebook yet.
func (r *GradebookRepository) Load(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT document FROM gradebooks WHERE course_key = $1`
	var document []byte
	if err := r.db.GetContext(ctx, &document, query, key); err != nil {
		return nil, err
	}
	return document, nil
}

// Save writes the document for key. Concurrent writers are not detected; the
// last write wins.
func (r *GradebookRepository) Save(ctx context.Context, key string, document []byte) error {
	const query = `INSERT INTO gradebooks (id, course_key, document, updated_at)
VALUES (:id, :course_key, :document, :updated_at)
ON CONFLICT (course_key)
DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`
	row := gradebookRow{
		ID:        uuid.NewString(),
		CourseKey: key,
		Document:  string(document),
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("save gradebook %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key. Deleting a missing gradebook is not an error.
func (r *GradebookRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM gradebooks WHERE course_key = $1`
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete gradebook %s: %w", key, err)
	}
	return nil
}

// ListKeys returns every stored course key in lexical order.
func (r *GradebookRepository) ListKeys(ctx context.Context) ([]string, error) {
	const query = `SELECT course_key FROM gradebooks ORDER BY course_key ASC`
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, fmt.Errorf("list gradebook keys: %w", err)
	}
	return keys, nil
}
