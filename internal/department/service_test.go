package department

import (
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/school-administration/internal"
)

func TestDepartment(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Department Module Suite")
}

type mockDepartmentRepository struct {
	departments map[int64]*Department
	members     map[int64][]Member
	courses     map[int64][]CourseSummary
	nextID      int64
}

func newMockDepartmentRepository() *mockDepartmentRepository {
	return &mockDepartmentRepository{
		departments: make(map[int64]*Department),
		members:     make(map[int64][]Member),
		courses:     make(map[int64][]CourseSummary),
		nextID:      1,
	}
}

func (m *mockDepartmentRepository) Create(d *Department) error {
	d.ID = m.nextID
	m.nextID++
	copied := *d
	m.departments[d.ID] = &copied
	return nil
}

func (m *mockDepartmentRepository) GetByID(id int64) (*Department, error) {
	if d, ok := m.departments[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, internal.ErrDepartmentNotFound
}

func (m *mockDepartmentRepository) GetByName(name string) (*Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			copied := *d
			return &copied, nil
		}
	}
	return nil, internal.ErrDepartmentNotFound
}

func (m *mockDepartmentRepository) List() ([]*Department, error) {
	var out []*Department
	for _, d := range m.departments {
		copied := *d
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockDepartmentRepository) CountCourses(id int64) (int64, error) {
	return int64(len(m.courses[id])), nil
}

func (m *mockDepartmentRepository) Members(id int64) ([]Member, error) {
	return m.members[id], nil
}

func (m *mockDepartmentRepository) CourseSummaries(id int64) ([]CourseSummary, error) {
	return m.courses[id], nil
}

func (m *mockDepartmentRepository) Delete(id int64) error {
	if _, ok := m.departments[id]; !ok {
		return internal.ErrDepartmentNotFound
	}
	delete(m.departments, id)
	return nil
}

var _ = ginkgo.Describe("DepartmentService", func() {
	var (
		service  *Service
		mockRepo *mockDepartmentRepository
	)

	ginkgo.BeforeEach(func() {
		mockRepo = newMockDepartmentRepository()
		service = NewService(mockRepo, slog.Default())
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should create a department", func() {
			d, err := service.Create(CreateDepartmentDTO{Name: "Computer Science"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(d.ID).To(gomega.BeNumerically(">", 0))
			gomega.Expect(d.Name).To(gomega.Equal("Computer Science"))
		})

		ginkgo.It("should conflict on a duplicate name", func() {
			_, err := service.Create(CreateDepartmentDTO{Name: "Computer Science"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Create(CreateDepartmentDTO{Name: "Computer Science"})
			gomega.Expect(err).To(gomega.HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeConflict))
		})

		ginkgo.It("should reject an empty name", func() {
			_, err := service.Create(CreateDepartmentDTO{})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Get", func() {
		ginkgo.It("should return member and course rosters", func() {
			d, err := service.Create(CreateDepartmentDTO{Name: "Computer Science"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			mockRepo.members[d.ID] = []Member{
				{UserID: 1, Username: "ada", State: "active"},
				{UserID: 2, Username: "grace", State: "invited"},
			}
			mockRepo.courses[d.ID] = []CourseSummary{
				{ID: 10, Name: "Algorithms", CourseNr: "CS201"},
			}

			detail, err := service.Get(d.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(detail.Members).To(gomega.HaveLen(2))
			gomega.Expect(detail.Courses).To(gomega.HaveLen(1))
		})

		ginkgo.It("should fail for an unknown department", func() {
			_, err := service.Get(999)
			gomega.Expect(err).To(gomega.Equal(internal.ErrDepartmentNotFound))
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("should delete an empty department", func() {
			d, err := service.Create(CreateDepartmentDTO{Name: "Computer Science"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			gomega.Expect(service.Delete(d.ID)).To(gomega.Succeed())

			_, err = service.Get(d.ID)
			gomega.Expect(err).To(gomega.Equal(internal.ErrDepartmentNotFound))
		})

		ginkgo.It("should refuse while courses remain", func() {
			d, err := service.Create(CreateDepartmentDTO{Name: "Computer Science"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			mockRepo.courses[d.ID] = []CourseSummary{{ID: 10, Name: "Algorithms"}}

			err = service.Delete(d.ID)
			gomega.Expect(err).To(gomega.Equal(internal.ErrDepartmentNotEmpty))
		})

		ginkgo.It("should fail for an unknown department", func() {
			err := service.Delete(999)
			gomega.Expect(err).To(gomega.Equal(internal.ErrDepartmentNotFound))
		})
	})
})
