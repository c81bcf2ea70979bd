package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

// ErrMalformedSettings marks stored settings that exist but cannot be decoded.
var ErrMalformedSettings = errors.New("malformed course settings")

// SettingsStore persists per-course grade settings keyed by course id.
type SettingsStore interface {
	Close() error
	ApplyMigrations(dir string) error

	// GetCourseSettings returns nil, nil when nothing is stored for the course.
	GetCourseSettings(ctx context.Context, course string) (*models.CourseSettings, error)
	SaveCourseSettings(ctx context.Context, settings *models.CourseSettings) error
	DeleteCourseSettings(ctx context.Context, course string) error
	ListCourses(ctx context.Context) ([]string, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) GetCourseSettings(ctx context.Context, course string) (*models.CourseSettings, error) {
	var row settingsRow
	query := s.Converter(`
		SELECT course, weights_enabled, policies_enabled, gpa_enabled, updated_at
		FROM course_settings
		WHERE course = ?
	`)
	err := s.DB.GetContext(ctx, &row, query, course)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course settings: %w", err)
	}

	settings := &models.CourseSettings{
		Course:          row.Course,
		WeightsEnabled:  row.WeightsEnabled,
		PoliciesEnabled: row.PoliciesEnabled,
		GPAEnabled:      row.GPAEnabled,
		UpdatedAt:       row.UpdatedAt,
	}

	var weights []weightRow
	err = s.DB.SelectContext(ctx, &weights, s.Converter(`
		SELECT course, category, weight
		FROM category_weights
		WHERE course = ?
		ORDER BY category
	`), course)
	if err != nil {
		return nil, fmt.Errorf("failed to get category weights: %w", err)
	}
	if len(weights) > 0 {
		settings.Weights = make(models.WeightMap, len(weights))
		for _, w := range weights {
			settings.Weights[w.Category] = w.Weight
		}
	}

	var policies []policyRow
	err = s.DB.SelectContext(ctx, &policies, s.Converter(`
		SELECT course, category, drop_lowest, full_credit_threshold
		FROM category_policies
		WHERE course = ?
		ORDER BY category
	`), course)
	if err != nil {
		return nil, fmt.Errorf("failed to get category policies: %w", err)
	}
	if len(policies) > 0 {
		settings.Policies = make(models.PolicyMap, len(policies))
		for _, p := range policies {
			settings.Policies[p.Category] = models.Policy{
				DropLowest:          p.DropLowest,
				FullCreditThreshold: p.FullCreditThreshold,
			}
		}
	}

	var ranges []gpaRangeRow
	err = s.DB.SelectContext(ctx, &ranges, s.Converter(`
		SELECT course, position, min_percent, max_percent, gpa_value
		FROM gpa_ranges
		WHERE course = ?
		ORDER BY position
	`), course)
	if err != nil {
		return nil, fmt.Errorf("failed to get gpa ranges: %w", err)
	}
	for _, r := range ranges {
		settings.GPAScale = append(settings.GPAScale, models.GPARange{
			MinPercent: r.MinPercent,
			MaxPercent: r.MaxPercent,
			GPAValue:   r.GPAValue,
		})
	}

	return settings, nil
}

// SaveCourseSettings replaces everything stored for the course in one transaction.
func (s *BaseStore) SaveCourseSettings(ctx context.Context, settings *models.CourseSettings) error {
	if settings == nil {
		return errors.New("settings must not be nil")
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO course_settings (course, weights_enabled, policies_enabled, gpa_enabled, updated_at)
		VALUES (:course, :weights_enabled, :policies_enabled, :gpa_enabled, :updated_at)
		ON CONFLICT(course) DO UPDATE SET
		weights_enabled = excluded.weights_enabled,
		policies_enabled = excluded.policies_enabled,
		gpa_enabled = excluded.gpa_enabled,
		updated_at = excluded.updated_at
	`, settingsRow{
		Course:          settings.Course,
		WeightsEnabled:  settings.WeightsEnabled,
		PoliciesEnabled: settings.PoliciesEnabled,
		GPAEnabled:      settings.GPAEnabled,
		UpdatedAt:       settings.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert course settings: %w", err)
	}

	if err := s.clearChildren(ctx, tx, settings.Course); err != nil {
		return err
	}

	for _, category := range slices.Sorted(maps.Keys(settings.Weights)) {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO category_weights (course, category, weight)
			VALUES (:course, :category, :weight)
		`, weightRow{Course: settings.Course, Category: category, Weight: settings.Weights[category]})
		if err != nil {
			return fmt.Errorf("failed to insert weight for %s: %w", category, err)
		}
	}

	for _, category := range slices.Sorted(maps.Keys(settings.Policies)) {
		p := settings.Policies[category]
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO category_policies (course, category, drop_lowest, full_credit_threshold)
			VALUES (:course, :category, :drop_lowest, :full_credit_threshold)
		`, policyRow{
			Course:              settings.Course,
			Category:            category,
			DropLowest:          p.DropLowest,
			FullCreditThreshold: p.FullCreditThreshold,
		})
		if err != nil {
			return fmt.Errorf("failed to insert policy for %s: %w", category, err)
		}
	}

	for i, r := range settings.GPAScale {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO gpa_ranges (course, position, min_percent, max_percent, gpa_value)
			VALUES (:course, :position, :min_percent, :max_percent, :gpa_value)
		`, gpaRangeRow{
			Course:     settings.Course,
			Position:   i,
			MinPercent: r.MinPercent,
			MaxPercent: r.MaxPercent,
			GPAValue:   r.GPAValue,
		})
		if err != nil {
			return fmt.Errorf("failed to insert gpa range %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit course settings: %w", err)
	}
	return nil
}

func (s *BaseStore) DeleteCourseSettings(ctx context.Context, course string) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.clearChildren(ctx, tx, course); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.Converter(`DELETE FROM course_settings WHERE course = ?`), course); err != nil {
		return fmt.Errorf("failed to delete course settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (s *BaseStore) ListCourses(ctx context.Context) ([]string, error) {
	var courses []string
	err := s.DB.SelectContext(ctx, &courses, `
		SELECT course
		FROM course_settings
		ORDER BY course
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// child tables are cleared explicitly; sqlite only cascades with foreign_keys on
func (s *BaseStore) clearChildren(ctx context.Context, tx *sqlx.Tx, course string) error {
	for _, table := range []string{"category_weights", "category_policies", "gpa_ranges"} {
		query := s.Converter(fmt.Sprintf(`DELETE FROM %s WHERE course = ?`, table))
		if _, err := tx.ExecContext(ctx, query, course); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
