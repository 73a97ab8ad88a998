package engine

import (
	"sort"

	"github.com/samber/lo"

	"github.com/muet-dev/timetable-api/internal/models"
)

// Snapshot is the engine's input: an immutable in-memory view of the domain
// entities a scheduling run operates on. Committed holds already-persisted
// entries of other configs, read-only, for cross-semester checks.
type Snapshot struct {
	Config      models.ScheduleConfig
	Subjects    []models.Subject
	Teachers    []models.Teacher
	Classrooms  []models.Classroom
	Batches     []models.Batch
	Assignments []models.TeacherAssignment
	Committed   []models.Entry
}

type qualKey struct {
	SubjectID  string
	ClassGroup string
}

// snapshotIndex precomputes the lookups every engine stage needs, so nothing
// downstream rescans the raw slices.
type snapshotIndex struct {
	subjects        map[string]models.Subject
	teachers        map[string]models.Teacher
	unavailability  map[string]models.Unavailability
	rooms           map[string]models.Classroom
	batches         map[string]models.Batch
	groups          []models.ClassGroup
	groupBatch      map[string]models.Batch
	qualified       map[qualKey][]string
	subjectsByBatch map[string][]models.Subject
}

func newSnapshotIndex(snap Snapshot) *snapshotIndex {
	idx := &snapshotIndex{
		subjects:        make(map[string]models.Subject, len(snap.Subjects)),
		teachers:        make(map[string]models.Teacher, len(snap.Teachers)),
		unavailability:  make(map[string]models.Unavailability, len(snap.Teachers)),
		rooms:           make(map[string]models.Classroom, len(snap.Classrooms)),
		batches:         make(map[string]models.Batch, len(snap.Batches)),
		groupBatch:      make(map[string]models.Batch),
		qualified:       make(map[qualKey][]string),
		subjectsByBatch: make(map[string][]models.Subject),
	}

	for _, subject := range snap.Subjects {
		idx.subjects[subject.ID] = subject
		idx.subjectsByBatch[subject.BatchID] = append(idx.subjectsByBatch[subject.BatchID], subject)
	}
	for _, teacher := range snap.Teachers {
		idx.teachers[teacher.ID] = teacher
		idx.unavailability[teacher.ID] = teacher.Windows()
	}
	for _, room := range snap.Classrooms {
		idx.rooms[room.ID] = room
	}
	for _, batch := range snap.Batches {
		idx.batches[batch.ID] = batch
	}

	// Deterministic subject order within a batch keeps generation stable.
	for batchID := range idx.subjectsByBatch {
		subjects := idx.subjectsByBatch[batchID]
		sort.Slice(subjects, func(i, j int) bool { return subjects[i].Code < subjects[j].Code })
		idx.subjectsByBatch[batchID] = subjects
	}

	selected := lo.SliceToMap(snap.Config.BatchIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	for _, batch := range snap.Batches {
		if _, ok := selected[batch.ID]; !ok {
			continue
		}
		for _, group := range batch.ClassGroups() {
			idx.groups = append(idx.groups, group)
			idx.groupBatch[group.String()] = batch
		}
	}
	// Senior cohorts are scheduled first so room priority holds.
	sort.SliceStable(idx.groups, func(i, j int) bool {
		bi := idx.groupBatch[idx.groups[i].String()]
		bj := idx.groupBatch[idx.groups[j].String()]
		if bi.Semester != bj.Semester {
			return bi.Semester > bj.Semester
		}
		return idx.groups[i].String() < idx.groups[j].String()
	})

	for _, assignment := range snap.Assignments {
		batch, ok := idx.batches[assignment.BatchID]
		if !ok {
			continue
		}
		for _, group := range batch.ClassGroups() {
			if assignment.Section != "" && assignment.Section != group.Section {
				continue
			}
			key := qualKey{SubjectID: assignment.SubjectID, ClassGroup: group.String()}
			idx.qualified[key] = append(idx.qualified[key], assignment.TeacherID)
		}
	}
	for key := range idx.qualified {
		teacherIDs := lo.Uniq(idx.qualified[key])
		sort.Strings(teacherIDs)
		idx.qualified[key] = teacherIDs
	}

	return idx
}

// qualifiedTeachers returns teacher IDs allowed to teach the subject for the
// class-group, in deterministic order.
func (idx *snapshotIndex) qualifiedTeachers(subjectID, classGroup string) []string {
	return idx.qualified[qualKey{SubjectID: subjectID, ClassGroup: classGroup}]
}

// isSeniorGroup reports whether the class-group belongs to a senior batch.
func (idx *snapshotIndex) isSeniorGroup(classGroup string) bool {
	batch, ok := idx.groupBatch[classGroup]
	return ok && batch.IsSenior()
}

// isFinalYearGroup reports whether the class-group is in its thesis year.
func (idx *snapshotIndex) isFinalYearGroup(classGroup string) bool {
	batch, ok := idx.groupBatch[classGroup]
	return ok && batch.IsFinalYear()
}
