package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// RosterRepository reads the students enrolled in a course.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a RosterRepository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// ListByCourse returns the course roster ordered by student name.
func (r *RosterRepository) ListByCourse(ctx context.Context, courseCode string) ([]models.RosterEntry, error) {
	const query = `SELECT s.id AS student_id, s.name, s.grade
FROM course_enrollments ce
JOIN students s ON s.id = ce.student_id
WHERE ce.course_code = $1
ORDER BY s.name ASC, s.id ASC`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, courseCode); err != nil {
		return nil, fmt.Errorf("list roster for %s: %w", courseCode, err)
	}
	return roster, nil
}
