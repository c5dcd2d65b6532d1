package cli

import (
	"deskflow/internal/config"
	"deskflow/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var flagSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&flagSeed, "seed", false, "create the system user if missing")
}

func runMigrate(cmd *cobra.Command, args []string) {
	cfg := config.Load()
	if err := config.InitLogger(cfg); err != nil {
		logrus.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Ticket{}, &models.TicketMessage{}, &models.TicketStatusChange{},
		&models.FAQ{}, &models.Notification{},
		&models.AutomationRule{}, &models.AutomationRun{},
	); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}
	logrus.Info("Migration complete")

	if flagSeed {
		seedSystemUser(db, cfg.Automation.SystemUserID)
	}
}

// seedSystemUser ensures the account automated messages are attributed to
// exists.
func seedSystemUser(db *gorm.DB, id uint) {
	var user models.User
	err := db.First(&user, id).Error
	if err == nil {
		return
	}
	if err != gorm.ErrRecordNotFound {
		logrus.Errorf("check system user: %v", err)
		return
	}
	user = models.User{
		Username: "deskflow-bot",
		Name:     "Deskflow Bot",
		Email:    "bot@deskflow.local",
		Role:     "system",
	}
	user.ID = id
	if err := db.Create(&user).Error; err != nil {
		logrus.Errorf("seed system user: %v", err)
		return
	}
	logrus.Infof("Seeded system user %d", id)
}
