package postgres_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/school-administration/internal"
	"github.com/frahmantamala/school-administration/internal/auth"
	"github.com/frahmantamala/school-administration/internal/membership"
	membershipPostgres "github.com/frahmantamala/school-administration/internal/membership/postgres"
)

func TestMembershipPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Membership Postgres Suite")
}

// SQLite-compatible models for schema setup

type SQLiteUser struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"column:username"`
	Email        string `gorm:"column:email;uniqueIndex"`
	PasswordHash string `gorm:"column:password_hash"`
	Role         string `gorm:"column:role"`
}

func (SQLiteUser) TableName() string { return "users" }

type SQLiteDepartment struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"column:name;uniqueIndex"`
}

func (SQLiteDepartment) TableName() string { return "departments" }

type SQLiteCourse struct {
	ID           int64  `gorm:"primaryKey"`
	DepartmentID int64  `gorm:"column:department_id"`
	Name         string `gorm:"column:name"`
}

func (SQLiteCourse) TableName() string { return "courses" }

var _ = Describe("Membership Repository", func() {
	var (
		db   *gorm.DB
		repo *membershipPostgres.MembershipRepository

		userID   int64 = 1
		deptID   int64 = 1
		courseID int64 = 1
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&SQLiteUser{},
			&SQLiteDepartment{},
			&SQLiteCourse{},
			&membership.Membership{},
			&membership.Enrollment{},
		)
		Expect(err).NotTo(HaveOccurred())

		Expect(db.Create(&SQLiteUser{ID: userID, Username: "ada", Email: "ada@school.example", Role: "student"}).Error).To(Succeed())
		Expect(db.Create(&SQLiteDepartment{ID: deptID, Name: "Computer Science"}).Error).To(Succeed())
		Expect(db.Create(&SQLiteCourse{ID: courseID, DepartmentID: deptID, Name: "Algorithms"}).Error).To(Succeed())

		repo = membershipPostgres.NewMembershipRepository(db)
	})

	Describe("GetMembership", func() {
		It("should return nil for a missing row", func() {
			m, err := repo.GetMembership(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(BeNil())
		})

		It("should round-trip a created membership", func() {
			created := &membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateInvited,
				InvitedAt:    time.Now(),
			}
			Expect(repo.CreateMembership(created)).To(Succeed())

			m, err := repo.GetMembership(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(m).NotTo(BeNil())
			Expect(m.State).To(Equal(membership.StateInvited))
		})
	})

	Describe("StandingFor", func() {
		It("should report none without a row", func() {
			standing, err := repo.StandingFor(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(standing).To(Equal(auth.StandingNone))
		})

		It("should report the membership state", func() {
			now := time.Now()
			Expect(repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateActive,
				InvitedAt:    now,
				ActivatedAt:  &now,
			})).To(Succeed())

			standing, err := repo.StandingFor(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(standing).To(Equal(auth.StandingActive))
		})

		It("should collapse removed to none", func() {
			now := time.Now()
			Expect(repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateRemoved,
				InvitedAt:    now,
				RemovedAt:    &now,
			})).To(Succeed())

			standing, err := repo.StandingFor(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(standing).To(Equal(auth.StandingNone))
		})
	})

	Describe("KickCascade", func() {
		var otherCourseID int64 = 2
		var otherDeptID int64 = 2

		BeforeEach(func() {
			Expect(db.Create(&SQLiteDepartment{ID: otherDeptID, Name: "Mathematics"}).Error).To(Succeed())
			Expect(db.Create(&SQLiteCourse{ID: otherCourseID, DepartmentID: otherDeptID, Name: "Calculus"}).Error).To(Succeed())

			now := time.Now()
			Expect(repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateActive,
				InvitedAt:    now,
				ActivatedAt:  &now,
			})).To(Succeed())
			Expect(repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: otherDeptID,
				State:        membership.StateActive,
				InvitedAt:    now,
				ActivatedAt:  &now,
			})).To(Succeed())

			Expect(repo.CreateEnrollment(&membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: now,
			}, deptID)).To(Succeed())
			Expect(repo.CreateEnrollment(&membership.Enrollment{
				UserID:     userID,
				CourseID:   otherCourseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: now,
			}, otherDeptID)).To(Succeed())
		})

		It("should remove the membership and withdraw enrollments in that department only", func() {
			withdrawn, err := repo.KickCascade(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(withdrawn).To(Equal(int64(1)))

			m, err := repo.GetMembership(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.State).To(Equal(membership.StateRemoved))
			Expect(m.RemovedAt).NotTo(BeNil())

			kicked, err := repo.GetEnrollment(userID, courseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(kicked.State).To(Equal(membership.EnrollmentWithdrawn))

			untouched, err := repo.GetEnrollment(userID, otherCourseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(untouched.State).To(Equal(membership.EnrollmentActive))
		})

		It("should leave the other membership intact", func() {
			_, err := repo.KickCascade(userID, deptID)
			Expect(err).NotTo(HaveOccurred())

			standing, err := repo.StandingFor(userID, otherDeptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(standing).To(Equal(auth.StandingActive))
		})

		It("should fail when no live membership exists", func() {
			_, err := repo.KickCascade(userID, deptID)
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.KickCascade(userID, deptID)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("CreateEnrollment", func() {
		activate := func() {
			now := time.Now()
			Expect(repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateActive,
				InvitedAt:    now,
				ActivatedAt:  &now,
			})).To(Succeed())
		}

		It("should insert for an active member and assign an id", func() {
			activate()

			e := &membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: time.Now(),
			}
			Expect(repo.CreateEnrollment(e, deptID)).To(Succeed())
			Expect(e.ID).NotTo(BeZero())
		})

		It("should refuse without a membership row", func() {
			err := repo.CreateEnrollment(&membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: time.Now(),
			}, deptID)
			Expect(err).To(MatchError(internal.ErrNotDeptMember))
		})

		It("should refuse after a kick lands between standing check and insert", func() {
			activate()

			standing, err := repo.StandingFor(userID, deptID)
			Expect(err).NotTo(HaveOccurred())
			Expect(standing).To(Equal(auth.StandingActive))

			_, err = repo.KickCascade(userID, deptID)
			Expect(err).NotTo(HaveOccurred())

			err = repo.CreateEnrollment(&membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: time.Now(),
			}, deptID)
			Expect(err).To(MatchError(internal.ErrNotDeptMember))

			e, err := repo.GetEnrollment(userID, courseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeNil())
		})

		It("should map a duplicate insert to the typed conflict", func() {
			activate()

			seed := &membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: time.Now(),
			}
			Expect(repo.CreateEnrollment(seed, deptID)).To(Succeed())

			err := repo.CreateEnrollment(&membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: time.Now(),
			}, deptID)
			Expect(err).To(MatchError(internal.ErrAlreadyEnrolled))
		})
	})

	Describe("ReactivateEnrollment", func() {
		var enrolled *membership.Enrollment

		BeforeEach(func() {
			now := time.Now()
			Expect(repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateActive,
				InvitedAt:    now,
				ActivatedAt:  &now,
			})).To(Succeed())

			enrolled = &membership.Enrollment{
				UserID:     userID,
				CourseID:   courseID,
				State:      membership.EnrollmentActive,
				EnrolledAt: now,
			}
			Expect(repo.CreateEnrollment(enrolled, deptID)).To(Succeed())
		})

		It("should flip a withdrawn enrollment back to active", func() {
			now := time.Now()
			enrolled.State = membership.EnrollmentWithdrawn
			enrolled.WithdrawnAt = &now
			Expect(repo.UpdateEnrollment(enrolled)).To(Succeed())

			enrolled.EnrolledAt = time.Now()
			Expect(repo.ReactivateEnrollment(enrolled, deptID)).To(Succeed())

			e, err := repo.GetEnrollment(userID, courseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.State).To(Equal(membership.EnrollmentActive))
			Expect(e.WithdrawnAt).To(BeNil())
		})

		It("should refuse once the membership is removed", func() {
			_, err := repo.KickCascade(userID, deptID)
			Expect(err).NotTo(HaveOccurred())

			enrolled.EnrolledAt = time.Now()
			err = repo.ReactivateEnrollment(enrolled, deptID)
			Expect(err).To(MatchError(internal.ErrNotDeptMember))

			e, err := repo.GetEnrollment(userID, courseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.State).To(Equal(membership.EnrollmentWithdrawn))
		})
	})

	Describe("CreateMembership", func() {
		It("should map a duplicate row to the typed conflict", func() {
			row := &membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateInvited,
				InvitedAt:    time.Now(),
			}
			Expect(repo.CreateMembership(row)).To(Succeed())

			err := repo.CreateMembership(&membership.Membership{
				UserID:       userID,
				DepartmentID: deptID,
				State:        membership.StateInvited,
				InvitedAt:    time.Now(),
			})
			Expect(err).To(MatchError(internal.ErrAlreadyInvited))
		})
	})

	Describe("CourseDepartment", func() {
		It("should resolve a course to its department", func() {
			deptOfCourse, err := repo.CourseDepartment(courseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(deptOfCourse).To(Equal(deptID))
		})

		It("should fail for an unknown course", func() {
			_, err := repo.CourseDepartment(999)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("existence checks", func() {
		It("should report users and departments", func() {
			ok, err := repo.UserExists(userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			ok, err = repo.DepartmentExists(999)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})
})
