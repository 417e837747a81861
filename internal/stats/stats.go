package stats

// Statistics is the aggregate snapshot served to administrators.
type Statistics struct {
	RegisteredUsers   int64 `json:"registered_users"`
	SuspendedUsers    int64 `json:"suspended_users"`
	FacultyMembers    int64 `json:"faculty_members"`
	ActiveStudents    int64 `json:"active_students"`
	Departments       int64 `json:"departments"`
	Courses           int64 `json:"courses"`
	ActiveEnrollments int64 `json:"active_enrollments"`
}
