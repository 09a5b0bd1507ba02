package filter

import (
	"log/slog"

	"gorm.io/gorm"
)

const loggerKey = "_ameba_logger"

// SetLoggerInDB attaches logger to db so Apply logs through it.
func SetLoggerInDB(db *gorm.DB, logger *slog.Logger) *gorm.DB {
	if db == nil {
		return db
	}
	if logger == nil {
		logger = slog.Default()
	}
	return db.Set(loggerKey, logger)
}

func loggerFromDB(db *gorm.DB) *slog.Logger {
	if db != nil {
		if v, ok := db.Get(loggerKey); ok {
			if logger, ok := v.(*slog.Logger); ok && logger != nil {
				return logger
			}
		}
	}
	return slog.Default()
}
