package gates_test

import (
	"testing"

	"github.com/junctionhq/junction/internal/app/system/gates"
	"github.com/junctionhq/junction/internal/domain/models"
)

func member() *models.UserSnapshot {
	return &models.UserSnapshot{ID: "u1", Email: "a@b.com", GlobalRole: models.RoleMember}
}

func admin() *models.UserSnapshot {
	return &models.UserSnapshot{ID: "u2", Email: "admin@b.com", GlobalRole: models.RoleAdmin, IsGlobalAdmin: true}
}

func superadmin() *models.UserSnapshot {
	return &models.UserSnapshot{ID: "u3", Email: "root@b.com", GlobalRole: models.RoleSuperAdmin, IsGlobalAdmin: true, IsSuperAdmin: true}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want gates.RouteClass
	}{
		{"/", gates.Public},
		{"/about", gates.Public},
		{"/events/annual-meetup", gates.Public},
		{"/contact", gates.Public},
		{"/signin", gates.AuthPage},
		{"/forgot-password", gates.AuthPage},
		{"/reset-password/abc", gates.AuthPage},
		{"/member-portal", gates.Member},
		{"/member-portal/profile", gates.Member},
		{"/dashboard", gates.Admin},
		{"/dashboard/projects/42", gates.Admin},
		{"/dashboard/system", gates.SuperAdmin},
		{"/dashboard/system/users", gates.SuperAdmin},
		{"/dashboardia", gates.Public}, // prefix match is segment-aware
	}
	for _, c := range cases {
		if got := gates.Classify(c.path); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestDecide_DecisionTable(t *testing.T) {
	cases := []struct {
		name  string
		class gates.RouteClass
		snap  *models.UserSnapshot
		want  gates.Decision
	}{
		{"admin on signin page", gates.AuthPage, admin(), gates.Decision{Action: gates.Redirect, Target: "/dashboard"}},
		{"member on signin page", gates.AuthPage, member(), gates.Decision{Action: gates.Redirect, Target: "/member-portal"}},
		{"visitor on signin page", gates.AuthPage, nil, gates.Decision{Action: gates.Pass}},
		{"visitor on member route", gates.Member, nil, gates.Decision{Action: gates.Redirect, Target: "/signin", StashDestination: true}},
		{"member on member route", gates.Member, member(), gates.Decision{Action: gates.Pass}},
		{"visitor on admin route", gates.Admin, nil, gates.Decision{Action: gates.Redirect, Target: "/signin", StashDestination: true}},
		{"member on admin route", gates.Admin, member(), gates.Decision{Action: gates.Redirect, Target: "/member-portal"}},
		{"admin on admin route", gates.Admin, admin(), gates.Decision{Action: gates.Pass}},
		{"admin on superadmin route", gates.SuperAdmin, admin(), gates.Decision{Action: gates.Redirect, Target: "/dashboard"}},
		{"member on superadmin route", gates.SuperAdmin, member(), gates.Decision{Action: gates.Redirect, Target: "/member-portal"}},
		{"superadmin on superadmin route", gates.SuperAdmin, superadmin(), gates.Decision{Action: gates.Pass}},
		{"visitor on public route", gates.Public, nil, gates.Decision{Action: gates.Pass}},
		{"member on public route", gates.Public, member(), gates.Decision{Action: gates.Pass}},
	}
	for _, c := range cases {
		if got := gates.Decide(c.class, c.snap); got != c.want {
			t.Errorf("%s: Decide = %+v, want %+v", c.name, got, c.want)
		}
	}
}

func TestDecide_TemporaryAdminCountsAsAdmin(t *testing.T) {
	snap := member()
	snap.HasTemporaryAdmin = true
	snap.IsGlobalAdmin = true

	if got := gates.Decide(gates.Admin, snap); got.Action != gates.Pass {
		t.Errorf("temporary admin on admin route: %+v, want pass", got)
	}
	// Temporary admin is not superadmin.
	got := gates.Decide(gates.SuperAdmin, snap)
	if got.Action != gates.Redirect || got.Target != "/dashboard" {
		t.Errorf("temporary admin on superadmin route: %+v, want redirect to /dashboard", got)
	}
}
