package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "marketing",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/promotions", Action: "*"},
				{Object: "/admin/promotions/:id", Action: "*"},
				{Object: "/admin/promotions/bulk-generate", Action: "POST"},
				{Object: "/admin/promotions/bulk-update", Action: "POST"},
				{Object: "/admin/promotions/bulk-expire", Action: "POST"},
				{Object: "/admin/promotions/export", Action: "POST"},
				{Object: "/admin/promotion-rules", Action: "*"},
				{Object: "/admin/promotion-rules/:id", Action: "*"},
				{Object: "/admin/vouchers", Action: "*"},
				{Object: "/admin/vouchers/:id", Action: "*"},
				{Object: "/admin/vouchers/bulk-generate", Action: "POST"},
				{Object: "/admin/vouchers/bulk-expire", Action: "POST"},
				{Object: "/admin/vouchers/bulk-delete", Action: "POST"},
				{Object: "/admin/vouchers/export", Action: "POST"},
				{Object: "/admin/partners", Action: "*"},
				{Object: "/admin/partners/:id", Action: "*"},
				{Object: "/admin/bundles", Action: "*"},
				{Object: "/admin/bundles/:id", Action: "*"},
				{Object: "/admin/bundles/bulk-price", Action: "POST"},
				{Object: "/admin/bundles/cache-rebuild", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/users", Action: "*"},
				{Object: "/admin/users/:id", Action: "*"},
				{Object: "/admin/users/batch-status", Action: "PUT"},
				{Object: "/admin/esim-profiles", Action: "GET"},
				{Object: "/admin/esim-profiles/:id", Action: "GET"},
				{Object: "/admin/esim-profiles/:id/sync", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/refund", Action: "POST"},
				{Object: "/admin/financial-documents", Action: "GET"},
				{Object: "/admin/financial-documents/:id", Action: "GET"},
				{Object: "/admin/financial-documents/:id/resend", Action: "POST"},
				{Object: "/admin/financial-documents/export", Action: "POST"},
				{Object: "/admin/currencies", Action: "*"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor); err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
