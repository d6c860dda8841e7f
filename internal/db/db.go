package db

import (
	"context"
	"strings"

	"bithub/internal/env"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Ctx = context.Background()
var RDB *redis.Client
var Client *mongo.Client

var Events *mongo.Collection

// InitDB connects to MongoDB and loads the audit collection for the
// deployment. An empty MONGO_URI leaves Events nil.
func InitDB(deployment string) error {
	if strings.TrimSpace(env.MONGO_URI) == "" {
		return nil
	}

	var err error

	Client, err = mongo.Connect(
		Ctx,
		options.Client().ApplyURI(env.MONGO_URI),
	)
	if err != nil {
		return err
	}

	err = Client.Ping(Ctx, nil)
	if err != nil {
		return err
	}

	// loading collections
	Events = GetCollection(databaseName(deployment), "events", Client)

	return nil
}

func GetCollection(database string, collectionName string, client *mongo.Client) *mongo.Collection {
	return client.Database(database).Collection(collectionName)
}

func databaseName(deployment string) string {
	if deployment == "" || deployment == "prod" {
		return "bithub"
	}
	return "bithub_" + deployment
}

// InitCache connects to Redis. An empty REDIS_ADDR leaves RDB nil.
func InitCache() error {
	if strings.TrimSpace(env.REDIS_ADDR) == "" {
		return nil
	}

	RDB = redis.NewClient(&redis.Options{
		Addr:     env.REDIS_ADDR,
		Password: env.REDIS_PASSWORD,
		DB:       env.REDIS_DB,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		_ = RDB.Close()
		RDB = nil
		return err
	}

	return nil
}

// Close releases the Mongo and Redis connections.
func Close() {
	if Client != nil {
		_ = Client.Disconnect(Ctx)
	}
	if RDB != nil {
		_ = RDB.Close()
	}
}
