package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/Hum-Bao/canvas-enable-totals/internal/extract"
	"github.com/Hum-Bao/canvas-enable-totals/internal/metrics"
	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
	"github.com/Hum-Bao/canvas-enable-totals/internal/render"
	"github.com/Hum-Bao/canvas-enable-totals/internal/scoring"
	"github.com/Hum-Bao/canvas-enable-totals/internal/store"
)

var ErrInvalidSettings = errors.New("invalid course settings")

type Service struct {
	Config *Config
	Store  store.SettingsStore
	Grader *scoring.Grader
	Pages  *extract.PageCache

	now func() time.Time
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(context.Background(), config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	return NewServiceWithStore(config, st), nil
}

func NewServiceWithStore(config *Config, st store.SettingsStore) *Service {
	return &Service{
		Config: config,
		Store:  st,
		Grader: scoring.NewGrader(config.Scoring.WeightTolerance),
		Pages:  extract.NewPageCache(config.Extract.CacheSize),
		now:    time.Now,
	}
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

// LoadSettings never returns nil. Missing or unusable stored settings fall back
// to the defaults; an error is only returned when the store itself failed.
func (s *Service) LoadSettings(ctx context.Context, course string) (*models.CourseSettings, error) {
	settings, err := s.Store.GetCourseSettings(ctx, course)
	metrics.ObserveSettingsOp("get", err)

	if errors.Is(err, store.ErrMalformedSettings) {
		logger.Error.Printf("Ignoring stored settings for course %s: %v", course, err)
		return models.DefaultCourseSettings(course), nil
	}
	if err != nil {
		return models.DefaultCourseSettings(course), fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		return models.DefaultCourseSettings(course), nil
	}
	if err := settings.Validate(); err != nil {
		logger.Error.Printf("Stored settings for course %s are invalid, using defaults: %v", course, err)
		return models.DefaultCourseSettings(course), nil
	}

	return settings, nil
}

// SaveSettings stores settings for their course. Inverted GPA ranges are dropped
// silently, negative policy values are rejected and inactive policies are not kept.
func (s *Service) SaveSettings(ctx context.Context, settings *models.CourseSettings) error {
	settings.GPAScale = settings.GPAScale.Sanitized()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	settings.Normalize()
	settings.UpdatedAt = s.now().Unix()

	err := s.Store.SaveCourseSettings(ctx, settings)
	metrics.ObserveSettingsOp("save", err)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	logger.Info.Printf("Saved settings for course %s", settings.Course)
	return nil
}

func (s *Service) DeleteSettings(ctx context.Context, course string) error {
	err := s.Store.DeleteCourseSettings(ctx, course)
	metrics.ObserveSettingsOp("delete", err)
	if err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}

func (s *Service) ListCourses(ctx context.Context) ([]string, error) {
	courses, err := s.Store.ListCourses(ctx)
	metrics.ObserveSettingsOp("list", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// ComputeTotals grades records that were already extracted by the caller.
// defaults are the course's own weights, used unless custom weights are enabled.
func (s *Service) ComputeTotals(
	ctx context.Context,
	course string,
	records models.RecordsByCategory,
	defaults models.WeightMap,
) *scoring.Result {
	settings := s.settingsOrDefaults(ctx, course)
	weights := settings.EffectiveWeights(defaults)
	if s.Config.Extract.SkipZeroWeight {
		records = withoutZeroWeight(records, weights)
	}
	return s.grade(course, settings, records, weights)
}

func (s *Service) ComputeFromPage(ctx context.Context, course string, html []byte) (*scoring.Result, error) {
	page, err := s.Pages.Parse(html)
	if err != nil {
		return nil, err
	}
	if !page.HasGradeTable() {
		logger.Debug.Printf("No grades table found for course %s", course)
	}

	settings := s.settingsOrDefaults(ctx, course)
	weights := settings.EffectiveWeights(page.DefaultWeights())
	records := page.Assignments(weights, s.Config.Extract.SkipZeroWeight)

	return s.grade(course, settings, records, weights), nil
}

// RenderPage computes totals for a grades page and writes them into its markup.
func (s *Service) RenderPage(ctx context.Context, course string, html []byte) ([]byte, *scoring.Result, error) {
	res, err := s.ComputeFromPage(ctx, course, html)
	if err != nil {
		return nil, nil, err
	}

	out, err := render.HTML(html, res)
	if err != nil {
		return nil, nil, err
	}
	return out, res, nil
}

func (s *Service) settingsOrDefaults(ctx context.Context, course string) *models.CourseSettings {
	settings, err := s.LoadSettings(ctx, course)
	if err != nil {
		logger.Error.Printf("Using default settings for course %s: %v", course, err)
	}
	return settings
}

func (s *Service) grade(
	course string,
	settings *models.CourseSettings,
	records models.RecordsByCategory,
	weights models.WeightMap,
) *scoring.Result {
	res := s.Grader.Grade(records, weights, settings.EffectivePolicies(), settings.EffectiveScale())

	metrics.ComputationsTotal.WithLabelValues(res.Mode).Inc()
	metrics.FinalPercentHistogram.WithLabelValues(course).Observe(res.FinalPercent)

	if !res.Balanced {
		logger.Debug.Printf("Weights for course %s add up to %.2f%%", course, res.WeightTotal)
	}
	return res
}

func withoutZeroWeight(records models.RecordsByCategory, weights models.WeightMap) models.RecordsByCategory {
	filtered := make(models.RecordsByCategory, len(records))
	for category, rs := range records {
		if w, ok := weights[category]; ok && w == 0 {
			continue
		}
		filtered[category] = rs
	}
	return filtered
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
