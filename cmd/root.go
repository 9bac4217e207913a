package cmd

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	coreconfig "github.com/subgate/subgate/core/config"
	coredb "github.com/subgate/subgate/core/database"
	settingsApp "github.com/subgate/subgate/core/settings/application"
	settingsInfra "github.com/subgate/subgate/core/settings/infrastructure"
	"github.com/subgate/subgate/infrastructure/telegram"
	"github.com/subgate/subgate/pkg/updateworker"
	"github.com/subgate/subgate/pkg/utils"
	subsApp "github.com/subgate/subgate/subscription/application"
	subsDomain "github.com/subgate/subgate/subscription/domain"
	subsRepo "github.com/subgate/subgate/subscription/repository"
)

var (
	db *gorm.DB

	// Services
	settingsSvc    *settingsApp.SettingsService
	subscriberRepo subsDomain.ISubscriberRepository
	tgClient       *telegram.Client
	paymentFlow    *subsApp.PaymentFlow
	adminDialogue  *subsApp.AdminDialogue
	expiryScanner  *subsApp.ExpiryScanner
	updateRouter   *telegram.Router
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "subgate",
	Short: "Paid Telegram channel subscription gateway",
	Long: `Subgate sells and renews access to a private Telegram channel,
charging in Telegram Stars and rotating single-use invite links.`,
}

func init() {
	// Load environment variables first
	_ = godotenv.Load()

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP(
		"port", "p", "",
		`port for the operational http API --port <string> | example: --port=3000`,
	)
	rootCmd.PersistentFlags().BoolP(
		"debug", "d", false,
		`enable debug logging --debug <true/false> | example: --debug=true`,
	)
	rootCmd.PersistentFlags().String(
		"db-driver", "",
		`database driver, sqlite or postgres --db-driver <string> | example: --db-driver="sqlite"`,
	)
	rootCmd.PersistentFlags().String(
		"bot-token", "",
		`telegram bot token, overrides SUBGATE_BOT_TOKEN --bot-token <string>`,
	)

	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("db_driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("bot_token", rootCmd.PersistentFlags().Lookup("bot-token"))
}

// initEnvConfig pushes flag values back into the environment so LoadConfig
// sees a single source of truth.
func initEnvConfig() {
	if port := viper.GetString("app_port"); port != "" {
		os.Setenv("APP_PORT", port)
	}
	if viper.GetBool("app_debug") {
		os.Setenv("APP_DEBUG", "true")
	}
	if driver := viper.GetString("db_driver"); driver != "" {
		os.Setenv("DB_DRIVER", driver)
	}
	if token := viper.GetString("bot_token"); token != "" {
		os.Setenv("SUBGATE_BOT_TOKEN", token)
	}
}

func initApp() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalln("[APP] Failed to load configuration:", err)
	}
	coreconfig.Global = cfg

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	serverID := utils.GetPersistentServerID(os.Getenv("SUBGATE_SERVER_ID"), cfg.Paths.BaseDir)
	logrus.Infof("[APP] Subgate %s starting as %s", cfg.App.Version, serverID)

	if cfg.Telegram.BotToken == "" {
		logrus.Fatalln("[APP] SUBGATE_BOT_TOKEN is required")
	}
	if cfg.Telegram.AdminID == 0 {
		logrus.Fatalln("[APP] SUBGATE_ADMIN_ID is required")
	}

	db, err = coredb.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalln("[DB] Failed to connect:", err)
	}

	ctx := context.Background()

	settingsRepository := settingsInfra.NewSettingsGormRepository(db)
	if err := settingsRepository.InitSchema(ctx); err != nil {
		logrus.Fatalln("[DB] Failed to initialize settings schema:", err)
	}
	settingsSvc = settingsApp.NewSettingsService(settingsRepository)

	subscriberRepo = subsRepo.NewSubscriberGormRepository(db)
	if err := subscriberRepo.InitSchema(ctx); err != nil {
		logrus.Fatalln("[DB] Failed to initialize subscribers schema:", err)
	}

	tgClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.Currency, cfg.App.Debug)
	if err != nil {
		logrus.Fatalln("[TELEGRAM] Failed to authorize bot:", err)
	}

	paymentFlow = subsApp.NewPaymentFlow(
		subscriberRepo,
		settingsSvc,
		tgClient,
		cfg.Subscription.Period,
		cfg.Subscription.InviteTTL,
	)
	adminDialogue = subsApp.NewAdminDialogue(
		cfg.Telegram.AdminID,
		settingsSvc,
		tgClient,
		tgClient,
		paymentFlow,
	)
	expiryScanner = subsApp.NewExpiryScanner(
		subscriberRepo,
		settingsSvc,
		tgClient,
		cfg.Subscription.ScanInterval,
		cfg.Subscription.RenewalWindow,
		cfg.Subscription.DiscountPercent,
	)
	pool := updateworker.NewUpdateWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	updateRouter = telegram.NewRouter(
		tgClient,
		subscriberRepo,
		settingsSvc,
		paymentFlow,
		adminDialogue,
		cfg.Telegram.UpdateTimeout,
		pool,
	)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of the database connection.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
