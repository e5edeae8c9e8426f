// Package connector owns the boring parts of bringing external
// systems up: logger construction and database connections for
// every supported backend.
package connector

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PostgresConfig define postgres connection configuration
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DefaultPostgresConfig is default postgres configuration
var DefaultPostgresConfig = &PostgresConfig{
	Host:     "localhost",
	Port:     5432,
	User:     "chatrooms",
	Password: "chatrooms",
	Database: "chatrooms",
	SSLMode:  "disable",
}

// MongoConfig define mongo connection configuration
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// DefaultMongoConfig is default mongo configuration
var DefaultMongoConfig = &MongoConfig{
	URI:      "mongodb://localhost:27017",
	Database: "chatrooms",
}

// Neo4jConfig define neo4j connection configuration
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DefaultNeo4jConfig is default neo4j configuration
var DefaultNeo4jConfig = &Neo4jConfig{
	URI:      "neo4j://localhost:7687",
	User:     "neo4j",
	Password: "neo4j",
}

// CreateLogger will create zap sugared logger with given level
func CreateLogger(level string) (*zap.SugaredLogger, error) {
	var lvl zapcore.Level
	err := lvl.Set(level)
	if err != nil {
		return nil, err
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// ConnectToPostgres will open a postgres connection and migrate
// the given models
func ConnectToPostgres(conf *PostgresConfig, models []interface{}) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s password=%s sslmode=%s",
		conf.Host, conf.Port, conf.User, conf.Database, conf.Password, conf.SSLMode,
	)
	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(models...).Error
	if err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectToMemmory will open an in-memory sqlite database and
// migrate the given models, used by test suites
func ConnectToMemmory(models []interface{}) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(models...).Error
	if err != nil {
		return nil, err
	}
	return db, nil
}

// ConnectToMongo will connect to a mongo deployment and ping it
func ConnectToMongo(ctx context.Context, conf *MongoConfig) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URI))
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}
	return client.Database(conf.Database), nil
}

// ConnectToNeo4j will create a neo4j driver and verify connectivity
func ConnectToNeo4j(ctx context.Context, conf *Neo4jConfig) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(
		conf.URI,
		neo4j.BasicAuth(conf.User, conf.Password, ""),
	)
	if err != nil {
		return nil, err
	}
	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		return nil, err
	}
	return driver, nil
}
