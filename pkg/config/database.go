package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/anonto42/campus-notices/backend/pkg/logger"
)

// DB holds the database connections. Mongo is nil when notices are kept in memory.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	log      logger.Logger
}

// NewDB opens the connections required by cfg and closes them when the app stops.
func NewDB(lc fx.Lifecycle, cfg *Config, log logger.Logger) (*DB, error) {
	db, err := InitDB(cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.CloseDB(ctx)
			return nil
		},
	})
	return db, nil
}

// InitDB initializes and returns the database connections
func InitDB(cfg *Config, log logger.Logger) (*DB, error) {
	postgresDB, err := initPostgres(cfg.PostgresConnStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to PostgreSQL")
	}
	log.Info("Successfully connected to PostgreSQL!")

	db := &DB{Postgres: postgresDB, log: log}
	if cfg.NoticeStore != StoreMongo {
		return db, nil
	}

	db.Mongo, err = initMongo(cfg.MongoURI)
	if err != nil {
		db.CloseDB(context.Background())
		return nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	log.Info("Successfully connected to MongoDB!")
	return db, nil
}

func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB(ctx context.Context) {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			db.log.Error("Error getting SQL DB from GORM", err)
		} else if err := sqlDB.Close(); err != nil {
			db.log.Error("Error closing PostgreSQL connection", err)
		} else {
			db.log.Info("PostgreSQL connection closed.")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.log.Error("Error closing MongoDB connection", err)
		} else {
			db.log.Info("MongoDB connection closed.")
		}
	}
}
