package jobs

import (
	"github.com/riverqueue/river"
)

const (
	DefaultQueue = "analysis"
	JobKind      = "analysis_run"
)

// AnalysisArgs is stored in river_job.args as JSON.
type AnalysisArgs struct {
	TaskID      uint `json:"task_id" river:"unique"`
	RecordingID uint `json:"recording_id" river:"unique"`
}

func (AnalysisArgs) Kind() string {
	return JobKind
}

// InsertOpts makes a second insert for the same task a no-op while the first job is still live.
func (AnalysisArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue: DefaultQueue,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	}
}
