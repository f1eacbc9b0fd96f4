package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/smartduck/ducktodo/internal/audit"
	"github.com/smartduck/ducktodo/internal/cascade"
	"github.com/smartduck/ducktodo/internal/config"
	"github.com/smartduck/ducktodo/internal/constants"
	"github.com/smartduck/ducktodo/internal/database"
	"github.com/smartduck/ducktodo/internal/handlers"
	"github.com/smartduck/ducktodo/internal/logging"
	"github.com/smartduck/ducktodo/internal/repository"
	"github.com/smartduck/ducktodo/internal/services"
	"github.com/smartduck/ducktodo/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "ducktodo",
	Short:         "Team task management API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.Migrate(db, log); err != nil {
			return err
		}
		return serve(cfg, log, db)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}
		return database.Migrate(db, log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap() (*config.Config, *logrus.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	log := logging.New(cfg)

	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func serve(cfg *config.Config, log *logrus.Logger, db *gorm.DB) error {
	gin.SetMode(cfg.GinMode)

	objects, err := storage.New(cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "failed to configure object storage")
	}

	store := repository.NewStore(db)
	engine := cascade.NewEngine(db, objects, log)
	members := services.NewMembershipService(store, log)
	svc := handlers.Services{
		Auth:    services.NewAuthService(store),
		Members: members,
		Teams:   services.NewTeamService(store, members, engine, log),
		Groups:  services.NewTaskGroupService(store, engine, log),
		Tasks:   services.NewTaskService(store, engine, audit.NewRecorder(store, log), objects, log),
		Authz:   services.NewAuthorizer(store),
	}

	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer()), gin.Recovery())

	// Setup session middleware with Redis
	sessionStore, err := redisStore.NewStore(
		10,
		"tcp",
		cfg.RedisHost+":"+cfg.RedisPort,
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create redis session store")
	}
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.Release(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionName, sessionStore))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "ducktodo is running",
		})
	})

	handlers.RegisterRoutes(r, svc)

	log.WithField("addr", cfg.ListenAddr).Info("server starting")
	return r.Run(cfg.ListenAddr)
}
