package pipeline

import (
	"github.com/veriperu/dniverify/internal/domain"
	"github.com/veriperu/dniverify/internal/queue"
)

// Stage describes one phase of the verification waterfall: where its work
// comes from, which statuses it moves records through, and where a miss
// goes next. NextQueue is empty for the final stage, whose misses resolve
// to not_found.
type Stage struct {
	Name       string
	Queue      string
	From       domain.Status
	Processing domain.Status
	Found      domain.Status
	NextQueue  string
	NextStatus domain.Status
}

func UniversityStage() Stage {
	return Stage{
		Name:       "university",
		Queue:      queue.UniversityQueue,
		From:       domain.StatusPending,
		Processing: domain.StatusCheckingUniversity,
		Found:      domain.StatusFoundUniversity,
		NextQueue:  queue.InstituteQueue,
		NextStatus: domain.StatusCheckingInstitute,
	}
}

func InstituteStage() Stage {
	return Stage{
		Name:       "institute",
		Queue:      queue.InstituteQueue,
		From:       domain.StatusCheckingInstitute,
		Processing: domain.StatusCheckingInstitute,
		Found:      domain.StatusFoundInstitute,
	}
}

func (s Stage) foundUpdate(payload string) domain.RecordUpdate {
	if s.Found == domain.StatusFoundUniversity {
		return domain.RecordUpdate{UniversityPayload: &payload}
	}
	return domain.RecordUpdate{InstitutePayload: &payload}
}
