package auth

import "testing"

func TestAuthorize(t *testing.T) {
	admin := Principal{UserID: "u-admin", Role: RoleAdmin}
	reporter := Principal{UserID: "u-rep", Role: RoleReporter, FacilityID: "7"}
	monitor := Principal{UserID: "u-mon", Role: RoleMonitor}

	cases := []struct {
		name      string
		principal Principal
		action    Action
		scope     string
		want      bool
	}{
		{"admin reads any scope", admin, ActionRead, "9", true},
		{"admin writes any scope", admin, ActionWrite, "9", true},
		{"admin manages any scope", admin, ActionManage, "", true},
		{"reporter writes own facility", reporter, ActionWrite, "7", true},
		{"reporter reads own facility", reporter, ActionRead, "7", true},
		{"reporter writes other facility", reporter, ActionWrite, "9", false},
		{"reporter reads other facility", reporter, ActionRead, "9", false},
		{"monitor reads any scope", monitor, ActionRead, "9", true},
		{"monitor writes denied", monitor, ActionWrite, "9", false},
		{"monitor manage denied", monitor, ActionManage, "", false},
		{"reporter manage denied", reporter, ActionManage, "7", false},
		{"unknown role denied", Principal{UserID: "x", Role: Role("root")}, ActionRead, "7", false},
		{"unknown action denied for monitor", monitor, Action("purge"), "7", false},
		{"reporter without facility denied", Principal{UserID: "u", Role: RoleReporter}, ActionWrite, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authorize(tc.principal, tc.action, tc.scope); got != tc.want {
				t.Fatalf("Authorize(%+v, %s, %q) = %v, want %v", tc.principal, tc.action, tc.scope, got, tc.want)
			}
		})
	}
}

func TestAuthorizeDeterministic(t *testing.T) {
	p := Principal{UserID: "u-rep", Role: RoleReporter, FacilityID: "7"}
	first := Authorize(p, ActionWrite, "7")
	for i := 0; i < 100; i++ {
		if Authorize(p, ActionWrite, "7") != first {
			t.Fatal("Authorize is not deterministic for identical inputs")
		}
	}
}
