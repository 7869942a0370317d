package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/router-for-me/VisitMappingService/internal/app"
	"github.com/router-for-me/VisitMappingService/internal/config"
	"github.com/router-for-me/VisitMappingService/internal/logging"
	"github.com/router-for-me/VisitMappingService/internal/security"

	log "github.com/sirupsen/logrus"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	errRun := run(ctx, os.Args[1:])
	stop()
	if errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and migrates, issues a token, or serves.
func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("visitmapping", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env CONFIG_PATH)")
	port := fs.Int("port", 0, "server port, overrides config and PORT")
	migrateOnly := fs.Bool("migrate-only", false, "run database migrations and exit")
	issueSubject := fs.String("issue-token", "", "print a bearer token for this subject and exit")
	roles := fs.String("roles", security.RoleNomisVisits, "comma separated roles for -issue-token")
	ttl := fs.Duration("ttl", time.Hour, "lifetime of the token printed by -issue-token, must be positive")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	if errValidate := validatePort(*port); errValidate != nil {
		return errValidate
	}

	appCfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if strings.TrimSpace(*cfgPath) != "" {
		appCfg.ConfigPath = config.ResolveConfigPath(*cfgPath)
	}

	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return err
	}
	if *port > 0 {
		cfg.Port = *port
	}
	logging.Setup(cfg.LogLevel, cfg.Debug)

	if subject := strings.TrimSpace(*issueSubject); subject != "" {
		token, errIssue := app.IssueToken(cfg, subject, security.ParseRoles(*roles), *ttl)
		if errIssue != nil {
			return errIssue
		}
		fmt.Println(token)
		return nil
	}

	if *migrateOnly {
		if errMigrate := app.Migrate(ctx, cfg); errMigrate != nil {
			return errMigrate
		}
		log.Info("migrations applied")
		return nil
	}

	log.Infof("starting visit mapping service with config=%s", appCfg.ConfigPath)
	return app.RunServer(ctx, cfg)
}

func validatePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port: %d", port)
	}
	return nil
}
