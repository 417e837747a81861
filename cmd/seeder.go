package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a bootstrap admin and sample departments, courses and users for development.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		_, db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		if clearData {
			for _, table := range []string{"enrollments", "memberships", "courses", "departments", "sessions", "users"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		seedUsers := []struct {
			Email    string
			Username string
			Role     string
		}{
			{"admin@school.example", "admin", "admin"},
			{"turing@school.example", "alan", "teacher"},
			{"lovelace@school.example", "ada", "student"},
			{"hopper@school.example", "grace", "student"},
		}

		for _, u := range seedUsers {
			if rowExists(db, "SELECT 1 FROM users WHERE email = ?", u.Email) {
				fmt.Printf("user %s already exists, skipping\n", u.Email)
				continue
			}
			err := db.Exec(`
				INSERT INTO users (email, username, role, verified, suspended, password_hash, created_at, updated_at)
				VALUES (?, ?, ?, TRUE, FALSE, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
				u.Email, u.Username, u.Role, string(hash)).Error
			if err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded user: %s (%s)\n", u.Email, u.Role)
		}

		departments := []struct {
			Name        string
			Description string
		}{
			{"Computer Science", "Computing, algorithms and software"},
			{"Mathematics", "Pure and applied mathematics"},
		}

		for _, d := range departments {
			if rowExists(db, "SELECT 1 FROM departments WHERE name = ?", d.Name) {
				continue
			}
			err := db.Exec(`
				INSERT INTO departments (name, description, created_at, updated_at)
				VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
				d.Name, d.Description).Error
			if err != nil {
				log.Fatalf("failed to insert department %s: %v", d.Name, err)
			}
			fmt.Printf("Seeded department: %s\n", d.Name)
		}

		var csID int64
		if err := db.Raw("SELECT id FROM departments WHERE name = ?", "Computer Science").Row().Scan(&csID); err != nil {
			log.Fatalf("failed to look up seeded department: %v", err)
		}

		var teacherID int64
		if err := db.Raw("SELECT id FROM users WHERE email = ?", "turing@school.example").Row().Scan(&teacherID); err != nil {
			log.Fatalf("failed to look up seeded teacher: %v", err)
		}

		if !rowExists(db, "SELECT 1 FROM memberships WHERE user_id = ? AND department_id = ?", teacherID, csID) {
			err := db.Exec(`
				INSERT INTO memberships (user_id, department_id, state, invited_at, activated_at, created_at, updated_at)
				VALUES (?, ?, 'active', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
				teacherID, csID).Error
			if err != nil {
				log.Fatalf("failed to insert teacher membership: %v", err)
			}
			fmt.Println("Seeded teacher membership in Computer Science")
		}

		if !rowExists(db, "SELECT 1 FROM courses WHERE course_nr = ?", "CS101") {
			err := db.Exec(`
				INSERT INTO courses (department_id, teacher_id, name, course_nr, description, cr_cost, timeslots, created_at, updated_at)
				VALUES (?, ?, 'Introduction to Computer Science', 'CS101', 'Foundations of programming and computation', 5, 'Mon 10:00-12:00', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
				csID, teacherID).Error
			if err != nil {
				log.Fatalf("failed to insert course: %v", err)
			}
			fmt.Println("Seeded course: CS101")
		}

		fmt.Println("Seeding complete. Default password for all seeded accounts: password")
	},
}

func rowExists(db *gorm.DB, query string, args ...interface{}) bool {
	var exists int
	return db.Raw(query, args...).Row().Scan(&exists) == nil
}
