package schema

// Custom string types for type safety.
type (
	// PeriodType is the granularity of a leaderboard bucket.
	PeriodType string

	// Tier is a rank band label.
	Tier string

	// Classification labels a commit as significant or simple.
	Classification string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string

	// SnapshotBackend is where the snapshot document lives.
	SnapshotBackend string

	// SourceKind selects the commit source.
	SourceKind string

	// RaterKind selects the significance rater.
	RaterKind string
)

// All period types.
const (
	Weekly    PeriodType = "weekly"
	Monthly   PeriodType = "monthly"
	Quarterly PeriodType = "quarterly"
)

// All tiers, best first.
const (
	TierElite        Tier = "T0"
	TierAdvanced     Tier = "T1"
	TierIntermediate Tier = "T2"
	TierContributing Tier = "T3"
)

// Commit classifications.
const (
	SignificantClass Classification = "significant"
	SimpleClass      Classification = "simple"
)

// SignificantThreshold is the minimum total score of a significant commit.
const SignificantThreshold = 50

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // rating cache only
	NoneBackend       DatabaseBackend = "none"
)

// Snapshot backends.
const (
	FileSnapshot SnapshotBackend = "file" // default
	S3Snapshot   SnapshotBackend = "s3"
)

// Commit sources.
const (
	LocalSource  SourceKind = "local" // default
	GitHubSource SourceKind = "github"
)

// Significance raters.
const (
	NoRater     RaterKind = "none" // default
	OpenAIRater RaterKind = "openai"
)

// AllPeriodTypes lists period types from finest to coarsest.
var AllPeriodTypes = []PeriodType{Weekly, Monthly, Quarterly}

// ValidPeriodTypes lists all valid period types.
var ValidPeriodTypes = map[PeriodType]struct{}{
	Weekly:    {},
	Monthly:   {},
	Quarterly: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid rating cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidRunBackends lists all valid run history backends.
var ValidRunBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSnapshotBackends lists all valid snapshot backends.
var ValidSnapshotBackends = map[SnapshotBackend]struct{}{
	FileSnapshot: {},
	S3Snapshot:   {},
}

// ValidSources lists all valid commit sources.
var ValidSources = map[SourceKind]struct{}{
	LocalSource:  {},
	GitHubSource: {},
}

// ValidRaters lists all valid raters.
var ValidRaters = map[RaterKind]struct{}{
	NoRater:     {},
	OpenAIRater: {},
}

// TierNames maps each tier to its display name.
var TierNames = map[Tier]string{
	TierElite:        "Elite",
	TierAdvanced:     "Advanced",
	TierIntermediate: "Intermediate",
	TierContributing: "Contributing",
}

// DefaultScoringSystem is embedded in every snapshot's metadata.
var DefaultScoringSystem = ScoringSystem{
	LOC:                  "lines changed: >=100 -> 30, >=50 -> 15, >=20 -> 8, else 3",
	Files:                "files changed: >=5 -> 20, >=2 -> 10, else 5",
	Keyword:              "message keywords: feat/refactor/perf 25, fix/improve 15, test/chore/ci 10, docs/style 5, none 12",
	AI:                   "significance rating 0-25, fallback min(25, lines/10)",
	SignificantThreshold: SignificantThreshold,
}
