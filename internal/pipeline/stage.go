package pipeline

// Stage is a step of a qualification run. Stages only advance.
type Stage int

const (
	StageLoaded Stage = iota + 1
	StageStatusFiltered
	StageWebsiteFiltered
	StageReviewFiltered
	StageEnriched
	StageSorted
	StageProjected
	StagePublished
)

// String returns the stage name used in logs and metric labels.
func (s Stage) String() string {
	switch s {
	case StageLoaded:
		return "loaded"
	case StageStatusFiltered:
		return "status_filtered"
	case StageWebsiteFiltered:
		return "website_filtered"
	case StageReviewFiltered:
		return "review_filtered"
	case StageEnriched:
		return "enriched"
	case StageSorted:
		return "sorted"
	case StageProjected:
		return "projected"
	case StagePublished:
		return "published"
	default:
		return "unknown"
	}
}
