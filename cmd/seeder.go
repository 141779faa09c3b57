package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo organization, dashboard users and sample attendance data.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"attendance_records", "attendance_events", "users", "organizations"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		orgID := "org-demo"
		seedOrganization(db, orgID, "Demo Organization")

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedUser(db, orgID, "admin@mail.com", "Demo Admin", string(hash))
		seedUser(db, orgID, "viewer@mail.com", "Demo Viewer", string(hash))

		seedAttendance(db, orgID)
	},
}

func seedOrganization(db *gorm.DB, id, name string) {
	var exists int
	row := db.Raw("SELECT 1 FROM organizations WHERE id = ?", id).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("organization already exists:", id)
		return
	}

	if err := db.Exec("INSERT INTO organizations (id, name, created_at) VALUES (?, ?, now())", id, name).Error; err != nil {
		log.Fatalf("failed to insert organization: %v", err)
	}
	fmt.Println("Seeded organization:", id)
}

func seedUser(db *gorm.DB, orgID, email, name, hash string) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("user already exists:", email)
		return
	}

	if err := db.Exec(
		"INSERT INTO users (organization_id, email, name, password_hash, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, true, now(), now())",
		orgID, email, name, hash,
	).Error; err != nil {
		log.Fatalf("failed to insert user %s: %v", email, err)
	}
	fmt.Println("Seeded user:", email)
}

func seedAttendance(db *gorm.DB, orgID string) {
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM attendance_events WHERE organization_id = ?", orgID).Scan(&count).Error; err == nil && count > 0 {
		fmt.Println("attendance data already present; skipping")
		return
	}

	now := time.Now().UTC()
	day := now.Format("2006-01-02")
	fullName := "Sample Employee"
	userType := "staff"
	role := "engineer"

	checkIn := now.Add(-8 * time.Hour)
	checkOut := now.Add(-30 * time.Minute)

	for _, ev := range []struct {
		status string
		ts     time.Time
	}{
		{"present", checkIn},
		{"checkout", checkOut},
	} {
		if err := db.Exec(
			`INSERT INTO attendance_events (organization_id, user_id, event_type, status, full_name, user_type, role, event_ts, received_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, now())`,
			orgID, "emp-001", ev.status, ev.status, fullName, userType, role, ev.ts,
		).Error; err != nil {
			log.Fatalf("failed to insert attendance event: %v", err)
		}
	}

	if err := db.Exec(
		`INSERT INTO attendance_records (organization_id, user_id, day, check_in_ts, check_out_ts, last_status, last_ts, full_name, user_type, role, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())`,
		orgID, "emp-001", day, checkIn, checkOut, "checkout", checkOut, fullName, userType, role,
	).Error; err != nil {
		log.Fatalf("failed to insert attendance record: %v", err)
	}

	fmt.Println("Seeded sample attendance data for", day)
}
