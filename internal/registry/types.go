package registry

// Environment is a configured backend target. Only configured environments
// are selectable in the UI.
type Environment struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Endpoint   string `json:"endpoint,omitempty"`
}

type environmentsResponse struct {
	Environments []Environment `json:"environments"`
}

// SubjectSummary describes one schema subject. The subject name is the key;
// there is no other identity.
type SubjectSummary struct {
	Subject      string  `json:"subject"`
	VersionCount int     `json:"version_count"`
	LatestVer    int     `json:"latest_version"`
	SizeKB       float64 `json:"size_kb"`
	SchemaType   string  `json:"schema_type"`
}

type schemasResponse struct {
	Environment   string           `json:"environment"`
	TotalCount    int              `json:"total_count"`
	ReturnedCount int              `json:"returned_count"`
	Subjects      []SubjectSummary `json:"subjects"`
}

// SchemaFilter narrows a subject listing. Zero values mean "no filter".
type SchemaFilter struct {
	Pattern        string
	MinVersions    int
	IncludeDeleted bool
}

// IsZero reports whether no filter criteria are set. Bulk preview requires a
// non-zero filter.
func (f SchemaFilter) IsZero() bool {
	return f.Pattern == "" && f.MinVersions == 0
}

// DeleteResult is the outcome of a single soft or hard delete.
type DeleteResult struct {
	Success bool   `json:"success"`
	Subject string `json:"subject"`
	Error   string `json:"error,omitempty"`
}

// BulkResult reports partial-failure semantics for a bulk delete: subjects
// fail independently and successes are never rolled back.
type BulkResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	Successful   []string `json:"successful,omitempty"`
	Failed       []string `json:"failed,omitempty"`
}

// purgeResponse carries both count spellings the backend has shipped.
// Decoding normalizes to the canonical success_count; see PurgeSoftDeleted.
type purgeResponse struct {
	Success      bool   `json:"success"`
	SuccessCount *int   `json:"success_count"`
	Count        *int   `json:"count"`
	Message      string `json:"message,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BulkType selects soft or hard semantics for a bulk delete.
type BulkType string

const (
	BulkSoft BulkType = "soft"
	BulkHard BulkType = "hard"
)

type bulkDeleteRequest struct {
	Subjects []string `json:"subjects"`
	Type     BulkType `json:"type"`
	Confirm  bool     `json:"confirm"`
}

// confirmBody asserts explicit confirmation for irreversible operations. The
// backend refuses hard deletes and purges that lack it.
type confirmBody struct {
	Confirm bool `json:"confirm"`
}

// TopicSummary describes one broker topic. SchemasCount > 0 is the sole gate
// for enabling spec generation.
type TopicSummary struct {
	Name           string `json:"name"`
	Partitions     int    `json:"partitions"`
	SchemasCount   int    `json:"schemas_count"`
	HasValueSchema bool   `json:"has_value_schema"`
	HasKeySchema   bool   `json:"has_key_schema"`
}

type topicsResponse struct {
	Environment string         `json:"environment"`
	Topics      []TopicSummary `json:"topics"`
}

// GenerateResult is the response to a spec-generation request.
type GenerateResult struct {
	Success      bool   `json:"success"`
	Topic        string `json:"topic"`
	Spec         string `json:"spec"`
	Filepath     string `json:"filepath"`
	SchemasCount int    `json:"schemas_count"`
	Error        string `json:"error,omitempty"`
}

// SpecSummary is one stored spec as listed by the backend. The topic name is
// not stored alongside; the UI infers it from the filename.
type SpecSummary struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Version  string `json:"version"`
	Channels int    `json:"channels"`
	Created  string `json:"created"`
}

type specsResponse struct {
	Count int           `json:"count"`
	Specs []SpecSummary `json:"specs"`
}

// CheckResult is one named health check.
type CheckResult struct {
	Status  string `json:"status"` // OK, WARNING, CRITICAL, ERROR
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// CheckSummary aggregates a health-check run.
type CheckSummary struct {
	Status      string `json:"status"`
	TotalIssues int    `json:"total_issues"`
}

// HealthReport is the full result of POST /api/check/{env}.
type HealthReport struct {
	Timestamp string                 `json:"timestamp"`
	Endpoint  string                 `json:"endpoint"`
	Checks    map[string]CheckResult `json:"checks"`
	Summary   CheckSummary           `json:"summary"`
}

// HistoryEntry is a read-only server-side operation record.
type HistoryEntry struct {
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
	Operation   string `json:"operation"`
	User        string `json:"user"`
	Status      string `json:"status"`
}

type historyResponse struct {
	Total   int            `json:"total"`
	History []HistoryEntry `json:"history"`
}

type chatStartResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatMessageRequest struct {
	SessionID   string `json:"session_id"`
	Message     string `json:"message"`
	Environment string `json:"environment"`
}

type chatMessageResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}
