package database

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var DB *mongo.Database

func ConnectDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoURI := os.Getenv("MONGODB_URI")
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return err
	}

	// Ping the database
	err = client.Ping(ctx, nil)
	if err != nil {
		return err
	}

	DB = client.Database("velora")
	log.Println("🗄️ Connected to MongoDB!")
	return nil
}

// Orders returns the orders collection.
func Orders() *mongo.Collection {
	return DB.Collection("orders")
}

// Products returns the products collection.
func Products() *mongo.Collection {
	return DB.Collection("products")
}

// Customers returns the customers collection.
func Customers() *mongo.Collection {
	return DB.Collection("customers")
}
