package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/promotions", want: "/admin/promotions"},
		{in: "/api/v1", want: "/"},
		{in: "/admin/promotions", want: "/admin/promotions"},
		{in: "admin/promotions", want: "/admin/promotions"},
		{in: "  /admin/orders  ", want: "/admin/orders"},
		{in: "", want: "/"},
	}
	for _, tc := range cases {
		if got := NormalizeObject(tc.in); got != tc.want {
			t.Fatalf("NormalizeObject(%q) want %q got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	if got, err := NormalizeRole("marketing"); err != nil || got != "role:marketing" {
		t.Fatalf("want role:marketing got %q err %v", got, err)
	}
	if got, err := NormalizeRole("role:finance"); err != nil || got != "role:finance" {
		t.Fatalf("want role:finance got %q err %v", got, err)
	}
	if got, err := NormalizeRole("night shift"); err != nil || got != "role:night_shift" {
		t.Fatalf("want role:night_shift got %q err %v", got, err)
	}
	if _, err := NormalizeRole("   "); err == nil {
		t.Fatalf("blank role should error")
	}
	if _, err := NormalizeRole("role:"); err == nil {
		t.Fatalf("prefix-only role should error")
	}
}

func TestEnforceAdminThroughRole(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.GrantRolePolicy("marketing", "/admin/promotions", "POST"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(7, []string{"marketing"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	ok, err := svc.EnforceAdmin(7, "/api/v1/admin/promotions", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("admin with role should be allowed")
	}

	ok, err = svc.EnforceAdmin(7, "/api/v1/admin/orders", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("unrelated object should be denied")
	}

	ok, err = svc.EnforceAdmin(8, "/api/v1/admin/promotions", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("admin without role should be denied")
	}
}

func TestEnforceWildcardAction(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.GrantRolePolicy("marketing", "/admin/vouchers/:id", "*"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(3, []string{"marketing"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	for _, act := range []string{"GET", "PUT", "DELETE"} {
		ok, err := svc.EnforceAdmin(3, "/admin/vouchers/42", act)
		if err != nil {
			t.Fatalf("enforce %s failed: %v", act, err)
		}
		if !ok {
			t.Fatalf("wildcard action should allow %s", act)
		}
	}
}

func TestSetAdminRolesOverrides(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.SetAdminRoles(5, []string{"marketing", "support"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	roles, err := svc.GetAdminRoles(5)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("roles want 2 got %v", roles)
	}

	if err := svc.SetAdminRoles(5, []string{"finance"}); err != nil {
		t.Fatalf("override roles failed: %v", err)
	}
	roles, err = svc.GetAdminRoles(5)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:finance" {
		t.Fatalf("roles want [role:finance] got %v", roles)
	}
}

func TestDeleteRoleRemovesPolicies(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.GrantRolePolicy("temp", "/admin/bundles", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(9, []string{"temp"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}

	if err := svc.DeleteRole("temp"); err != nil {
		t.Fatalf("delete role failed: %v", err)
	}

	ok, err := svc.EnforceAdmin(9, "/admin/bundles", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("deleted role should no longer grant access")
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	for _, role := range roles {
		if role == "role:temp" {
			t.Fatalf("deleted role still listed: %v", roles)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	// 幂等：重复执行不报错
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	want := map[string]bool{
		"role:readonly_auditor": false,
		"role:marketing":        false,
		"role:support":          false,
		"role:finance":          false,
	}
	for _, role := range roles {
		if _, ok := want[role]; ok {
			want[role] = true
		}
	}
	for role, found := range want {
		if !found {
			t.Fatalf("builtin role %s missing from %v", role, roles)
		}
	}

	if err := svc.SetAdminRoles(1, []string{"readonly_auditor"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	ok, err := svc.EnforceAdmin(1, "/admin/orders", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("readonly auditor should read any admin object")
	}
	ok, err = svc.EnforceAdmin(1, "/admin/promotions", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("readonly auditor must not write")
	}

	if err := svc.SetAdminRoles(2, []string{"marketing"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	ok, err = svc.EnforceAdmin(2, "/admin/promotions", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("marketing should create promotions")
	}
	// 继承 readonly_auditor 的只读权限
	ok, err = svc.EnforceAdmin(2, "/admin/orders", "GET")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("marketing should inherit read access")
	}
	ok, err = svc.EnforceAdmin(2, "/admin/orders/42/refund", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if ok {
		t.Fatalf("marketing must not refund orders")
	}

	if err := svc.SetAdminRoles(3, []string{"support"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	ok, err = svc.EnforceAdmin(3, "/admin/users/batch-status", "PUT")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("support should bulk-update user status")
	}

	if err := svc.SetAdminRoles(4, []string{"finance"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	ok, err = svc.EnforceAdmin(4, "/admin/orders/42/refund", "POST")
	if err != nil {
		t.Fatalf("enforce failed: %v", err)
	}
	if !ok {
		t.Fatalf("finance should refund orders")
	}
}

func TestGetAdminPoliciesMergesRoleAndDirect(t *testing.T) {
	svc := setupAuthzTest(t)

	if err := svc.GrantRolePolicy("marketing", "/admin/promotions", "POST"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetAdminRoles(6, []string{"marketing"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	if _, err := svc.Enforcer().AddPolicy(SubjectForAdmin(6), "/admin/currencies", "PUT"); err != nil {
		t.Fatalf("add direct policy failed: %v", err)
	}

	policies, err := svc.GetAdminPolicies(6)
	if err != nil {
		t.Fatalf("get admin policies failed: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("policies want 2 got %v", policies)
	}
}
