package core

// Entity names a table on the hosted platform. One realtime channel and one
// set of cached result sets exist per entity.
type Entity string

const (
	EntityStudent      Entity = "students"
	EntityTeacher      Entity = "teachers"
	EntityClass        Entity = "classes"
	EntityAttendance   Entity = "attendance"
	EntityTimetable    Entity = "timetable"
	EntityAnnouncement Entity = "announcements"
)

// Record is an opaque row value keyed by its immutable identifier. The
// synchronization layer never interprets domain fields beyond the ID.
type Record interface {
	RecordID() string
}

type ChangeOp string

const (
	ChangeInsert ChangeOp = "INSERT"
	ChangeUpdate ChangeOp = "UPDATE"
	ChangeDelete ChangeOp = "DELETE"
)

// ChangeEvent is a row-level change pushed by the platform's realtime feed.
// Record is nil for deletes. Applied once then discarded.
type ChangeEvent struct {
	Entity Entity
	Op     ChangeOp
	ID     string
	Record Record
}
