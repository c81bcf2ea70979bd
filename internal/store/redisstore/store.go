package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/Hum-Bao/canvas-enable-totals/internal/models"
	"github.com/Hum-Bao/canvas-enable-totals/internal/store"
)

const (
	settingsKeyTpl = "canvas_course_settings:%s" // canvas_course_settings:${course}
	coursesKey     = "canvas_courses"
)

type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(ctx context.Context, dsn string) (*RedisStore, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client), nil
}

func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}

// ApplyMigrations is a no-op; hashes need no schema.
func (s *RedisStore) ApplyMigrations(string) error {
	return nil
}

func settingsKey(course string) string {
	return fmt.Sprintf(settingsKeyTpl, course)
}

func (s *RedisStore) GetCourseSettings(ctx context.Context, course string) (*models.CourseSettings, error) {
	values, err := s.redis.HGetAll(ctx, settingsKey(course)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course settings: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	settings, err := decodeSettings(course, values)
	if err != nil {
		return nil, fmt.Errorf("%w: course %s: %v", store.ErrMalformedSettings, course, err)
	}
	return settings, nil
}

func (s *RedisStore) SaveCourseSettings(ctx context.Context, settings *models.CourseSettings) error {
	if settings == nil {
		return fmt.Errorf("settings must not be nil")
	}

	fields, err := encodeSettings(settings)
	if err != nil {
		return fmt.Errorf("failed to encode course settings: %w", err)
	}

	key := settingsKey(settings.Course)
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.SAdd(ctx, coursesKey, settings.Course)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save course settings: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteCourseSettings(ctx context.Context, course string) error {
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, settingsKey(course))
	pipe.SRem(ctx, coursesKey, course)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete course settings: %w", err)
	}
	return nil
}

func (s *RedisStore) ListCourses(ctx context.Context) ([]string, error) {
	courses, err := s.redis.SMembers(ctx, coursesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	slices.Sort(courses)
	return courses, nil
}

func encodeSettings(settings *models.CourseSettings) (map[string]interface{}, error) {
	fields := map[string]interface{}{
		"course":           settings.Course,
		"weights_enabled":  strconv.FormatBool(settings.WeightsEnabled),
		"policies_enabled": strconv.FormatBool(settings.PoliciesEnabled),
		"gpa_enabled":      strconv.FormatBool(settings.GPAEnabled),
		"updated_at":       strconv.FormatInt(settings.UpdatedAt, 10),
	}

	if settings.Weights != nil {
		raw, err := json.Marshal(settings.Weights)
		if err != nil {
			return nil, err
		}
		fields["weights"] = string(raw)
	}
	if settings.Policies != nil {
		raw, err := json.Marshal(settings.Policies)
		if err != nil {
			return nil, err
		}
		fields["policies"] = string(raw)
	}
	if settings.GPAScale != nil {
		raw, err := json.Marshal(settings.GPAScale)
		if err != nil {
			return nil, err
		}
		fields["gpa_scale"] = string(raw)
	}
	return fields, nil
}

func decodeSettings(course string, values map[string]string) (*models.CourseSettings, error) {
	settings := models.DefaultCourseSettings(course)

	flags := []struct {
		field string
		dst   *bool
	}{
		{"weights_enabled", &settings.WeightsEnabled},
		{"policies_enabled", &settings.PoliciesEnabled},
		{"gpa_enabled", &settings.GPAEnabled},
	}
	for _, f := range flags {
		raw, ok := values[f.field]
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.field, err)
		}
		*f.dst = v
	}

	if raw, ok := values["updated_at"]; ok {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("field updated_at: %w", err)
		}
		settings.UpdatedAt = v
	}

	if raw, ok := values["weights"]; ok {
		if err := json.Unmarshal([]byte(raw), &settings.Weights); err != nil {
			return nil, fmt.Errorf("field weights: %w", err)
		}
	}
	if raw, ok := values["policies"]; ok {
		if err := json.Unmarshal([]byte(raw), &settings.Policies); err != nil {
			return nil, fmt.Errorf("field policies: %w", err)
		}
	}
	if raw, ok := values["gpa_scale"]; ok {
		if err := json.Unmarshal([]byte(raw), &settings.GPAScale); err != nil {
			return nil, fmt.Errorf("field gpa_scale: %w", err)
		}
	}

	return settings, nil
}
