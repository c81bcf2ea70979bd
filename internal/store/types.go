package store

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
	DBTypeRedis    DatabaseType = "redis"
)

type DBConfig struct {
	DSN           string
	Type          DatabaseType
	MigrationsDir string
}

type settingsRow struct {
	Course          string `db:"course"`
	WeightsEnabled  bool   `db:"weights_enabled"`
	PoliciesEnabled bool   `db:"policies_enabled"`
	GPAEnabled      bool   `db:"gpa_enabled"`
	UpdatedAt       int64  `db:"updated_at"`
}

type weightRow struct {
	Course   string  `db:"course"`
	Category string  `db:"category"`
	Weight   float64 `db:"weight"`
}

type policyRow struct {
	Course              string  `db:"course"`
	Category            string  `db:"category"`
	DropLowest          int     `db:"drop_lowest"`
	FullCreditThreshold float64 `db:"full_credit_threshold"`
}

type gpaRangeRow struct {
	Course     string  `db:"course"`
	Position   int     `db:"position"`
	MinPercent float64 `db:"min_percent"`
	MaxPercent float64 `db:"max_percent"`
	GPAValue   float64 `db:"gpa_value"`
}
