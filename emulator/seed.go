package emulator

import (
	"encoding/json"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/announcement"
	"github.com/shulehq/shule/core/class"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/teacher"
	"github.com/shulehq/shule/core/timetable"
)

// Demo credentials.
const (
	SeedAdminEmail   = "head@demo.school"
	SeedTeacherEmail = "amina@demo.school"
	SeedStudentEmail = "juma@demo.school"
	SeedPassword     = "demo-pass"
)

func toRow(v interface{}) row {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var r row
	if err := json.Unmarshal(raw, &r); err != nil {
		panic(err)
	}
	return r
}

// Seed loads a small demo school: accounts, two classes with teachers,
// students, a timetable and a welcome announcement.
func (s *server) Seed() {
	s.users.add(SeedAdminEmail, SeedPassword, RoleAdmin)
	s.users.add(SeedTeacherEmail, SeedPassword, RoleTeacher)
	s.users.add(SeedStudentEmail, SeedPassword, RoleStudent)

	t1 := teacher.NewTeacher{Name: "Amina Hassan", Email: SeedTeacherEmail, Subject: "Mathematics"}.Teacher()
	t2 := teacher.NewTeacher{Name: "Daudi Mwangi", Email: "daudi@demo.school", Subject: "English"}.Teacher()

	c1 := class.NewClass{Name: "Form 1A", Level: 9, HomeTeacherID: t1.ID}.Class()
	c2 := class.NewClass{Name: "Form 2B", Level: 10, HomeTeacherID: t2.ID}.Class()

	students := []student.Student{
		student.NewStudent{Name: "Juma Otieno", Email: SeedStudentEmail, ClassID: c1.ID}.Student(),
		student.NewStudent{Name: "Neema Baraka", Email: "neema@demo.school", ClassID: c1.ID}.Student(),
		student.NewStudent{Name: "Zawadi Kimani", Email: "zawadi@demo.school", ClassID: c2.ID}.Student(),
	}

	periods := []timetable.Period{
		timetable.NewPeriod{ClassID: c1.ID, TeacherID: t1.ID, Subject: "Mathematics", Weekday: 1, StartsAt: "08:00", EndsAt: "09:00"}.Period(),
		timetable.NewPeriod{ClassID: c1.ID, TeacherID: t2.ID, Subject: "English", Weekday: 1, StartsAt: "09:00", EndsAt: "10:00"}.Period(),
		timetable.NewPeriod{ClassID: c2.ID, TeacherID: t2.ID, Subject: "English", Weekday: 2, StartsAt: "08:00", EndsAt: "09:00"}.Period(),
	}

	welcome := announcement.NewAnnouncement{
		Title:    "Welcome back",
		Body:     "The new term starts Monday. Timetables are up.",
		Audience: announcement.AudienceAll,
	}.Announcement(t1.ID)

	seedTable := func(entity core.Entity, recs ...interface{}) {
		t, _ := s.tables.get(entity)
		for _, rec := range recs {
			t.insert(toRow(rec), false)
		}
	}
	seedTable(core.EntityTeacher, t1, t2)
	seedTable(core.EntityClass, c1, c2)
	seedTable(core.EntityStudent, students[0], students[1], students[2])
	seedTable(core.EntityTimetable, periods[0], periods[1], periods[2])
	seedTable(core.EntityAnnouncement, welcome)
}
