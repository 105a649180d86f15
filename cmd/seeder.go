package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type seedPermission struct {
	Key    string
	Name   string
	Module string
}

var permissionCatalog = []seedPermission{
	{"access:manage", "Manage access control", "access"},
	{"user:view", "View user accounts", "user"},
	{"user:deactivate", "Deactivate user accounts", "user"},
	{"university:create", "Create universities", "university"},
	{"university:edit", "Edit universities", "university"},
	{"university:delete", "Delete universities", "university"},
	{"institution:create", "Create institutions", "university"},
	{"department:create", "Create departments", "university"},
	{"department:delete", "Delete departments", "university"},
	{"job:create", "Create job postings", "job"},
	{"job:edit", "Edit job postings", "job"},
	{"job:delete", "Delete job postings", "job"},
	{"scholarship:create", "Create scholarships", "scholarship"},
	{"scholarship:delete", "Delete scholarships", "scholarship"},
	{"news:create", "Create news articles", "news"},
	{"news:edit", "Edit news articles", "news"},
	{"news:delete", "Delete news articles", "news"},
	{"news:publish", "Publish news articles", "news"},
}

type seedRole struct {
	Key         string
	Name        string
	Level       int
	ScopeLabel  string
	IsDefault   bool
	IsSuperRole bool
	Permissions []string
}

var roleCatalog = []seedRole{
	{
		Key: "SUPER_ADMIN", Name: "Super Administrator", Level: 100,
		IsSuperRole: true,
	},
	{
		Key: "UNIVERSITY_ADMIN", Name: "University Administrator", Level: 50,
		ScopeLabel: "university",
		Permissions: []string{
			"university:edit", "institution:create",
			"department:create", "department:delete",
			"job:create", "job:edit", "job:delete",
			"scholarship:create", "scholarship:delete",
			"news:create", "news:edit", "news:delete", "news:publish",
			"user:view",
		},
	},
	{
		Key: "DEPT_HEAD", Name: "Department Head", Level: 30,
		ScopeLabel: "department",
		Permissions: []string{
			"job:create", "job:edit", "job:delete",
			"news:create", "news:edit",
		},
	},
	{
		Key: "STUDENT", Name: "Student", Level: 10,
		IsDefault: true,
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog, builtin roles and the super admin account",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		for _, p := range permissionCatalog {
			var pid int64
			if err := db.Raw("SELECT id FROM permissions WHERE key = ?", p.Key).Row().Scan(&pid); err == nil {
				continue
			}
			if err := db.Exec(
				"INSERT INTO permissions (key, display_name, module, created_at) VALUES (?, ?, ?, now())",
				p.Key, p.Name, p.Module).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", p.Key, err)
			}
			fmt.Println("Seeded permission:", p.Key)
		}

		for _, r := range roleCatalog {
			var rid int64
			if err := db.Raw("SELECT id FROM roles WHERE key = ?", r.Key).Row().Scan(&rid); err != nil {
				if err := db.Exec(
					"INSERT INTO roles (key, name, level, scope_label, is_default, is_super_role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, now(), now())",
					r.Key, r.Name, r.Level, r.ScopeLabel, r.IsDefault, r.IsSuperRole).Error; err != nil {
					log.Fatalf("failed to insert role %s: %v", r.Key, err)
				}
				if err := db.Raw("SELECT id FROM roles WHERE key = ?", r.Key).Row().Scan(&rid); err != nil {
					log.Fatalf("role not found after insert %s: %v", r.Key, err)
				}
				fmt.Println("Seeded role:", r.Key)
			}

			for _, permKey := range r.Permissions {
				var pid int64
				if err := db.Raw("SELECT id FROM permissions WHERE key = ?", permKey).Row().Scan(&pid); err != nil {
					log.Fatalf("permission not found %s: %v", permKey, err)
				}
				var exists int
				if err := db.Raw("SELECT 1 FROM role_permissions WHERE role_id = ? AND permission_id = ?", rid, pid).Row().Scan(&exists); err == nil {
					continue
				}
				if err := db.Exec("INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)", rid, pid).Error; err != nil {
					log.Fatalf("failed to attach permission %s to role %s: %v", permKey, r.Key, err)
				}
			}
		}

		// Super admin account with a global SUPER_ADMIN assignment.
		hash, _ := bcrypt.GenerateFromPassword([]byte("changeme-now"), cfg.Security.BCryptCost)

		var adminID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", seedAdminEmail).Row().Scan(&adminID); err != nil {
			if err := db.Exec(
				"INSERT INTO users (email, name, password_hash, is_active, created_at, updated_at) VALUES (?, 'Super Admin', ?, true, now(), now())",
				seedAdminEmail, string(hash)).Error; err != nil {
				log.Fatalf("failed to insert admin user: %v", err)
			}
			if err := db.Raw("SELECT id FROM users WHERE email = ?", seedAdminEmail).Row().Scan(&adminID); err != nil {
				log.Fatalf("admin user not found after insert: %v", err)
			}
			fmt.Println("Seeded super admin:", seedAdminEmail)
		}

		var superRoleID int64
		if err := db.Raw("SELECT id FROM roles WHERE key = 'SUPER_ADMIN'").Row().Scan(&superRoleID); err != nil {
			log.Fatalf("SUPER_ADMIN role missing: %v", err)
		}

		var exists int
		if err := db.Raw(
			"SELECT 1 FROM role_assignments WHERE user_id = ? AND role_id = ? AND scope_kind = '' AND scope_id = 0",
			adminID, superRoleID).Row().Scan(&exists); err != nil {
			if err := db.Exec(
				"INSERT INTO role_assignments (user_id, role_id, scope_kind, scope_id, created_at) VALUES (?, ?, '', 0, now())",
				adminID, superRoleID).Error; err != nil {
				log.Fatalf("failed to assign SUPER_ADMIN: %v", err)
			}
			fmt.Println("Assigned SUPER_ADMIN to:", seedAdminEmail)
		}

		fmt.Println("Seeding complete")
	},
}
