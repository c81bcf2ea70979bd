package postgres

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
)

func setupMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	s := NewPostgresStoreFromDB(sqlx.NewDb(db, "postgres"))
	cleanup := func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		s.Close()
	}
	return s, mock, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestConvertPlaceholders(t *testing.T) {
	assert.Equal(t,
		"DELETE FROM gpa_ranges WHERE course = $1 AND position = $2",
		convertPlaceholders("DELETE FROM gpa_ranges WHERE course = ? AND position = ?"),
	)
	assert.Equal(t, "SELECT 1", convertPlaceholders("SELECT 1"))
}

func TestGetCourseSettings(t *testing.T) {
	s, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT course, weights_enabled, policies_enabled, gpa_enabled, updated_at\s+FROM course_settings`).
		WithArgs("12345").
		WillReturnRows(sqlmock.NewRows([]string{"course", "weights_enabled", "policies_enabled", "gpa_enabled", "updated_at"}).
			AddRow("12345", true, true, true, int64(1705320000)))
	mock.ExpectQuery(`FROM category_weights`).
		WithArgs("12345").
		WillReturnRows(sqlmock.NewRows([]string{"course", "category", "weight"}).
			AddRow("12345", "Exams", 60.0).
			AddRow("12345", "Homework", 40.0))
	mock.ExpectQuery(`FROM category_policies`).
		WithArgs("12345").
		WillReturnRows(sqlmock.NewRows([]string{"course", "category", "drop_lowest", "full_credit_threshold"}).
			AddRow("12345", "Homework", int64(2), 0.0))
	mock.ExpectQuery(`FROM gpa_ranges`).
		WithArgs("12345").
		WillReturnRows(sqlmock.NewRows([]string{"course", "position", "min_percent", "max_percent", "gpa_value"}).
			AddRow("12345", int64(0), 90.0, 100.0, 4.0))

	got, err := s.GetCourseSettings(context.Background(), "12345")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, &models.CourseSettings{
		Course:          "12345",
		WeightsEnabled:  true,
		Weights:         models.WeightMap{"Exams": 60, "Homework": 40},
		PoliciesEnabled: true,
		Policies:        models.PolicyMap{"Homework": {DropLowest: 2}},
		GPAEnabled:      true,
		GPAScale:        models.GPAScale{{MinPercent: 90, MaxPercent: 100, GPAValue: 4}},
		UpdatedAt:       1705320000,
	}, got)
}

func TestGetCourseSettingsNotFound(t *testing.T) {
	s, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`FROM course_settings`).
		WithArgs("404").
		WillReturnError(sql.ErrNoRows)

	got, err := s.GetCourseSettings(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveCourseSettings(t *testing.T) {
	s, mock, cleanup := setupMockStore(t)
	defer cleanup()

	settings := &models.CourseSettings{
		Course:          "12345",
		WeightsEnabled:  true,
		Weights:         models.WeightMap{"Homework": 40, "Exams": 60},
		PoliciesEnabled: true,
		Policies:        models.PolicyMap{"Quizzes": {FullCreditThreshold: 50}},
		GPAScale:        models.GPAScale{{MinPercent: 90, MaxPercent: 100, GPAValue: 4}},
		UpdatedAt:       1705320000,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO course_settings`).
		WithArgs("12345", true, true, false, int64(1705320000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM category_weights`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM category_policies`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM gpa_ranges`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 0))
	// weights are written in category order
	mock.ExpectExec(`INSERT INTO category_weights`).WithArgs("12345", "Exams", 60.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO category_weights`).WithArgs("12345", "Homework", 40.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO category_policies`).WithArgs("12345", "Quizzes", 0, 50.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO gpa_ranges`).WithArgs("12345", 0, 90.0, 100.0, 4.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveCourseSettings(context.Background(), settings))
}

func TestSaveCourseSettingsRollsBack(t *testing.T) {
	s, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO course_settings`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := s.SaveCourseSettings(context.Background(), &models.CourseSettings{Course: "12345"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert course settings")
}

func TestDeleteCourseSettings(t *testing.T) {
	s, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM category_weights`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM category_policies`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM gpa_ranges`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM course_settings`).WithArgs("12345").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteCourseSettings(context.Background(), "12345"))
}

func TestListCourses(t *testing.T) {
	s, mock, cleanup := setupMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT course\s+FROM course_settings`).
		WillReturnRows(sqlmock.NewRows([]string{"course"}).AddRow("100").AddRow("200"))

	courses, err := s.ListCourses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "200"}, courses)
}

// TestLiveRoundTrip runs against a real database when TOTALS_TEST_POSTGRES_DSN is set.
func TestLiveRoundTrip(t *testing.T) {
	dsn := os.Getenv("TOTALS_TEST_POSTGRES_DSN")
	if testing.Short() || dsn == "" {
		t.Skip("Skipping Postgres integration test. Set TOTALS_TEST_POSTGRES_DSN to run it.")
	}

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")
	defer s.Close()
	ctx := context.Background()

	want := &models.CourseSettings{
		Course:          "integration-test",
		WeightsEnabled:  true,
		Weights:         models.WeightMap{"Homework": 40, "Exams": 60},
		PoliciesEnabled: true,
		Policies:        models.PolicyMap{"Homework": {DropLowest: 1}},
		GPAEnabled:      true,
		GPAScale:        models.GPAScale{{MinPercent: 90, MaxPercent: 100, GPAValue: 4}},
		UpdatedAt:       1705320000,
	}
	require.NoError(t, s.SaveCourseSettings(ctx, want))
	defer s.DeleteCourseSettings(ctx, want.Course)

	got, err := s.GetCourseSettings(ctx, want.Course)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
