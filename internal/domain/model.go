package domain

type PipelineStatus string

const (
	StatusSuccess   PipelineStatus = "success"
	StatusFailed    PipelineStatus = "failed"
	StatusRunning   PipelineStatus = "running"
	StatusCancelled PipelineStatus = "cancelled"
	StatusOther     PipelineStatus = "other"
)

// Pipeline is a loaded publish pipeline definition.
type Pipeline struct {
	Stages    []string
	Variables map[string]string
	Jobs      []Job
}

// Job actions dispatched by the executor instead of a shell script.
const (
	ActionMirror  = "mirror"
	ActionRelease = "release"
)

type Job struct {
	Name         string
	Stage        string
	Action       string
	Script       []string
	Rules        []Rule
	Needs        []string
	Tags         []string
	Variables    map[string]string
	AllowFailure bool
}

// Rule guards a job. Rules are evaluated in declared order; the first
// matching rule alone decides whether the job runs and which extra
// variables it binds.
type Rule struct {
	If        string
	When      string
	Variables map[string]string
}

const (
	WhenAlways    = "always"
	WhenOnSuccess = "on_success"
	WhenNever     = "never"
)

// Decision is the outcome of evaluating a job's rule set.
type Decision struct {
	Run       bool
	Variables map[string]string
}

type JobStatus string

const (
	JobSuccess JobStatus = "success"
	JobFailed  JobStatus = "failed"
	JobSkipped JobStatus = "skipped"
)

type JobResult struct {
	Job    string
	Status JobStatus
	Output string
}

// PipelineRun is the state of one upstream CI pipeline for a ref.
type PipelineRun struct {
	ID     int64
	Ref    string
	Status PipelineStatus
	WebURL string
}

type Asset struct {
	Name string
	Path string
}

type Release struct {
	Tag         string
	Description string
	Assets      []Asset
}

// ReleaseSummary is the snapshot written after a successful publish.
type ReleaseSummary struct {
	Tag       string
	Assets    []string
	Published int64
}

// Manifest is a declarative build recipe for one external dependency.
// Regenerating it replaces the whole file; there is no partial edit.
type Manifest struct {
	Package struct {
		Name    string
		Version string
	}
	Source struct {
		URL    string
		SHA256 string
	}
	Build struct {
		Number    int
		SkipTests bool
	}
	Requirements struct {
		Host []string
		Run  []string
	}
	Test struct {
		Commands []string
	}
	About struct {
		Description string
		Home        string
	}
}

// VerifyReport describes what a manifest verification actually checked.
type VerifyReport struct {
	URL          string
	SHA256       string
	TestsSkipped bool
	TestsRun     int
}
