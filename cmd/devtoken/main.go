package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"rescue-coordination/internal/config"
	"rescue-coordination/internal/middleware"
	"rescue-coordination/internal/model"

	"github.com/sirupsen/logrus"
)

func main() {
	id := flag.Int64("id", 1, "actor id")
	role := flag.String("role", string(model.RoleVolunteer), "reporter, volunteer or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	logger := logrus.New()

	actor := model.Actor{ID: *id, Role: model.Role(*role)}
	if !actor.Role.Valid() {
		logger.WithField("role", *role).Fatal("unknown role")
	}

	cfg, _ := config.Load()
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET is empty, signing with the development secret")
	}

	token, err := middleware.NewAuthenticator(cfg.JWTSecret).Issue(actor, *ttl)
	if err != nil {
		logger.WithError(err).Fatal("failed to issue token")
	}
	fmt.Fprintln(os.Stdout, token)
}
