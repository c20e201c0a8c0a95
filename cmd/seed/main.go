package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainingdesk/internal/config"
	"trainingdesk/internal/database"
	"trainingdesk/internal/domain/machine"
	"trainingdesk/internal/domain/member"
	"trainingdesk/internal/domain/settings"
	"trainingdesk/internal/domain/subscription"
	jwtsvc "trainingdesk/internal/pkg/jwt"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv_load_failed error=%v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProd() {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{MaxOpenConns: cfg.MaxOpenConns})
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	// Cleanup old data (children first)
	log.Println("Cleaning old data...")
	for _, table := range []string{"training_sessions", "subscriptions", "members", "machines", "facility_settings"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	if err := seed(db); err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTIssuer)
	token, err := j.GenerateToken(1, jwtsvc.RoleStaff)
	if err != nil {
		log.Fatalf("token: %v", err)
	}

	fmt.Println("\n========== SEED COMPLETED ==========")
	fmt.Println("Machines: 1-3 available, 4 under maintenance")
	fmt.Println("Members:  anna@example.com (10 credits), boris@example.com (1 credit left), carl@example.com (no subscription)")
	fmt.Printf("Staff token (%s):\n%s\n", cfg.JWTAccessTTL, token)
}

func seed(db *gorm.DB) error {
	log.Println("Creating settings...")
	if err := settings.NewRepository(db).Save(context.Background(), settings.Default()); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	log.Println("Creating machines...")
	machines := []machine.Machine{
		{Number: 1, Name: "Treadmill 1", IsAvailable: true},
		{Number: 2, Name: "Treadmill 2", IsAvailable: true},
		{Number: 3, Name: "Rowing machine", IsAvailable: true},
		{Number: 4, Name: "Cable station", IsAvailable: false},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&machines).Error; err != nil {
		return fmt.Errorf("machines: %w", err)
	}

	log.Println("Creating members and subscriptions...")
	now := time.Now().UTC()
	checkup := now.AddDate(0, -2, 0)
	paid := now.AddDate(0, 0, -20)

	members := []struct {
		member member.Member
		total  int
		used   int
	}{
		{member.Member{Email: "anna@example.com", Name: "Anna", Phone: "+49 151 000001", LastCheckupAt: &checkup, LatestPaymentAt: &paid}, 10, 0},
		{member.Member{Email: "boris@example.com", Name: "Boris", Phone: "+49 151 000002", LatestPaymentAt: &paid}, 12, 11},
		{member.Member{Email: "carl@example.com", Name: "Carl"}, 0, 0},
	}

	for _, m := range members {
		mem := m.member
		if err := db.Create(&mem).Error; err != nil {
			return fmt.Errorf("member %s: %w", mem.Email, err)
		}
		if m.total == 0 {
			continue
		}
		sub := subscription.Subscription{
			MemberID:              mem.ID,
			Status:                subscription.StatusActive,
			StartDate:             now.AddDate(0, -1, 0),
			EndDate:               now.AddDate(0, 2, 0),
			TotalSessionsSnapshot: m.total,
			UsedSessions:          m.used,
		}
		if err := db.Create(&sub).Error; err != nil {
			return fmt.Errorf("subscription for %s: %w", mem.Email, err)
		}
		log.Printf("member=%s subscription=%d remaining=%d", mem.Email, sub.ID, sub.RemainingSessions())
	}
	return nil
}
