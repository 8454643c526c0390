package student

import "testing"

func TestNewStudentBuildsRecord(t *testing.T) {
	ns := NewStudent{Name: "  Juma Otieno ", Email: " Juma@Demo.School ", ClassID: "c1"}
	s := ns.Student()

	if s.ID == "" {
		t.Error("Student() did not assign an id")
	}
	if s.Name != "Juma Otieno" {
		t.Errorf("Name = %q, want cleaned", s.Name)
	}
	if s.Email != "juma@demo.school" {
		t.Errorf("Email = %q, want cleaned and lowered", s.Email)
	}
	if s.CreatedAt.IsZero() || !s.CreatedAt.Equal(s.UpdatedAt) {
		t.Error("timestamps not set")
	}
	if s.RecordID() != s.ID {
		t.Error("RecordID() != ID")
	}
}

func TestUpdateStudentApply(t *testing.T) {
	base := NewStudent{Name: "Juma", Email: "juma@demo.school", ClassID: "c1"}.Student()

	tests := []struct {
		name string
		us   UpdateStudent
		want Student
	}{
		{
			name: "zero update keeps everything",
			us:   UpdateStudent{},
			want: base,
		},
		{
			name: "partial update",
			us:   UpdateStudent{Name: "Juma O.", ClassID: "c2"},
			want: func() Student {
				s := base
				s.Name = "Juma O."
				s.ClassID = "c2"
				return s
			}(),
		},
		{
			name: "avatar only",
			us:   UpdateStudent{AvatarURL: "/storage/v1/avatars/juma.png"},
			want: func() Student {
				s := base
				s.AvatarURL = "/storage/v1/avatars/juma.png"
				return s
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.us.Apply(base)
			if got.UpdatedAt.Before(base.UpdatedAt) {
				t.Error("Apply() did not bump UpdatedAt")
			}
			got.UpdatedAt = tt.want.UpdatedAt
			if got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
