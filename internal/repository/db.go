package repository

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"golink-redirect/internal/model"
	"golink-redirect/pkg/config"
	"golink-redirect/pkg/logging"
)

var DB *gorm.DB

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

// OpenDB 打开数据库连接并迁移表结构
func OpenDB(settings config.DBSettings, logger *zap.Logger, atomicLogLevel zap.AtomicLevel) (*gorm.DB, error) {
	d, err := dialector(settings.Driver, settings.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logging.NewGormLogger(logger, logging.ToGormLogLevel(atomicLogLevel.Level())),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Link{}, &model.Click{}, &model.DailyStat{})
}

// InitDB 初始化全局 DB
func InitDB(settings config.DBSettings, logger *zap.Logger, atomicLogLevel zap.AtomicLevel) error {
	db, err := OpenDB(settings, logger, atomicLogLevel)
	if err != nil {
		return err
	}
	DB = db
	logger.Info("Database connected", zap.String("driver", settings.Driver))
	return nil
}
