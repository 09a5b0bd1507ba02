// Command devserver serves sample entities through the ameba list endpoint.
//
// Usage:
//
//	devserver -addr :8080 -db sqlite -dsn file::memory:?cache=shared
//	DATABASE_URL=postgres://... devserver -db postgres
//
// Try:
//
//	curl 'localhost:8080/Products?filter=price.gt(20),name.contains("o")'
//	curl 'localhost:8080/Customers?filter=orders.filter(status.eq("shipped"))'
//	curl 'localhost:8080/Customers?filter=age.lt(18)' -H 'Accept-Language: zh-CN'
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/icode/ameba"
	"github.com/icode/ameba/cmd/devserver/entities"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbType := flag.String("db", "sqlite", "database type: sqlite or postgres")
	dsn := flag.String("dsn", "", "database DSN (default: in-memory sqlite, or DATABASE_URL for postgres)")
	lang := flag.String("lang", "en", "default language of error messages")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn or error")
	serverTiming := flag.Bool("server-timing", true, "add Server-Timing headers")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))

	db, err := openDatabase(*dbType, *dsn)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := seedDatabase(db, log); err != nil {
		log.Error("Failed to seed database", "error", err)
		os.Exit(1)
	}

	service, err := ameba.NewService(db,
		ameba.WithLogger(log),
		ameba.WithLanguage(*lang),
		ameba.WithObservability(ameba.ObservabilityConfig{
			ServiceName:        "ameba-devserver",
			EnableServerTiming: *serverTiming,
		}),
	)
	if err != nil {
		log.Error("Failed to create service", "error", err)
		os.Exit(1)
	}
	for _, model := range entities.All() {
		if err := service.RegisterEntity(model); err != nil {
			log.Error("Failed to register entity", "error", err)
			os.Exit(1)
		}
	}

	fmt.Println("Entity sets:")
	for _, name := range service.EntitySets() {
		fmt.Printf("  http://localhost%s/%s\n", *addr, name)
	}

	log.Info("Starting development server", "addr", *addr, "db", *dbType)
	if err := http.ListenAndServe(*addr, logMiddleware(log, service)); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch strings.ToLower(dbType) {
	case "sqlite":
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		return gorm.Open(sqlite.Open(dsn), cfg)
	case "postgres", "postgresql":
		if dsn == "" {
			dsn = os.Getenv("DATABASE_URL")
		}
		if dsn == "" {
			return nil, fmt.Errorf("postgres requires -dsn or DATABASE_URL")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return nil, fmt.Errorf("unsupported database type %q", dbType)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
