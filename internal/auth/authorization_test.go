package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Authorize", func() {
	allRoles := []Role{RoleStudent, RoleTeacher, RoleAdmin}
	allStandings := []Standing{StandingNone, StandingInvited, StandingActive}

	ginkgo.Describe("CapabilityAny", func() {
		ginkgo.It("should allow every role and standing", func() {
			for _, role := range allRoles {
				for _, standing := range allStandings {
					decision := Authorize(role, standing, CapabilityAny)
					gomega.Expect(decision.Allowed).To(gomega.BeTrue(),
						"role=%s standing=%s", role, standing)
				}
			}
		})
	})

	ginkgo.Describe("CapabilityDepartmentMember", func() {
		ginkgo.It("should allow admins regardless of standing", func() {
			for _, standing := range allStandings {
				decision := Authorize(RoleAdmin, standing, CapabilityDepartmentMember)
				gomega.Expect(decision.Allowed).To(gomega.BeTrue(), "standing=%s", standing)
			}
		})

		ginkgo.It("should allow non-admins only with active standing", func() {
			for _, role := range []Role{RoleStudent, RoleTeacher} {
				gomega.Expect(Authorize(role, StandingActive, CapabilityDepartmentMember).Allowed).To(gomega.BeTrue())
				gomega.Expect(Authorize(role, StandingInvited, CapabilityDepartmentMember).Allowed).To(gomega.BeFalse())
				gomega.Expect(Authorize(role, StandingNone, CapabilityDepartmentMember).Allowed).To(gomega.BeFalse())
			}
		})

		ginkgo.It("should give a reason on denial", func() {
			decision := Authorize(RoleStudent, StandingNone, CapabilityDepartmentMember)
			gomega.Expect(decision.Allowed).To(gomega.BeFalse())
			gomega.Expect(decision.Reason).ToNot(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("CapabilityDepartmentAdminOrTeacher", func() {
		ginkgo.It("should allow admins regardless of standing", func() {
			for _, standing := range allStandings {
				gomega.Expect(Authorize(RoleAdmin, standing, CapabilityDepartmentAdminOrTeacher).Allowed).To(gomega.BeTrue())
			}
		})

		ginkgo.It("should allow teachers only with active standing", func() {
			gomega.Expect(Authorize(RoleTeacher, StandingActive, CapabilityDepartmentAdminOrTeacher).Allowed).To(gomega.BeTrue())
			gomega.Expect(Authorize(RoleTeacher, StandingInvited, CapabilityDepartmentAdminOrTeacher).Allowed).To(gomega.BeFalse())
			gomega.Expect(Authorize(RoleTeacher, StandingNone, CapabilityDepartmentAdminOrTeacher).Allowed).To(gomega.BeFalse())
		})

		ginkgo.It("should never allow students", func() {
			for _, standing := range allStandings {
				gomega.Expect(Authorize(RoleStudent, standing, CapabilityDepartmentAdminOrTeacher).Allowed).To(gomega.BeFalse())
			}
		})
	})

	ginkgo.Describe("CapabilityGlobalAdmin", func() {
		ginkgo.It("should allow only the admin role", func() {
			for _, standing := range allStandings {
				gomega.Expect(Authorize(RoleAdmin, standing, CapabilityGlobalAdmin).Allowed).To(gomega.BeTrue())
				gomega.Expect(Authorize(RoleTeacher, standing, CapabilityGlobalAdmin).Allowed).To(gomega.BeFalse())
				gomega.Expect(Authorize(RoleStudent, standing, CapabilityGlobalAdmin).Allowed).To(gomega.BeFalse())
			}
		})
	})

	ginkgo.Describe("unknown capability", func() {
		ginkgo.It("should deny even for admins", func() {
			decision := Authorize(RoleAdmin, StandingActive, Capability("bogus"))
			gomega.Expect(decision.Allowed).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("ParseRole", func() {
	ginkgo.It("should accept the three known roles", func() {
		for _, name := range []string{"student", "teacher", "admin"} {
			role, ok := ParseRole(name)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(string(role)).To(gomega.Equal(name))
		}
	})

	ginkgo.It("should reject anything else", func() {
		for _, name := range []string{"", "Admin", "superuser", "staff"} {
			_, ok := ParseRole(name)
			gomega.Expect(ok).To(gomega.BeFalse(), "name=%q", name)
		}
	})
})
