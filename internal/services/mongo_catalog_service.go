package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/walkin/intake/internal/models"
)

// MongoCatalogService reads the item type catalog kept by the inventory side
// of the organisation.
type MongoCatalogService struct {
	client        *mongo.Client
	itemTypesColl *mongo.Collection
}

type mongoItemTypeDoc struct {
	ID                string  `bson:"_id"`
	Name              string  `bson:"name"`
	CategoryID        string  `bson:"category_id"`
	CategoryName      string  `bson:"category_name"`
	DefaultValue      float64 `bson:"default_value"`
	FixedCondition    string  `bson:"fixed_condition,omitempty"`
	HasFixedCondition bool    `bson:"has_fixed_condition"`
	AvgRetailPrice    float64 `bson:"avg_retail_price"`
	Active            *bool   `bson:"active,omitempty"`
}

func NewMongoCatalogService(ctx context.Context, mongoURI, dbName string) (*MongoCatalogService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	coll := client.Database(dbName).Collection("item_types")

	// Best-effort index.
	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "category_name", Value: 1}, {Key: "name", Value: 1}},
	})

	log.Printf("MongoDB catalog connected: db=%s", dbName)
	return &MongoCatalogService{client: client, itemTypesColl: coll}, nil
}

// connectMongo forces TLS 1.2; Atlas has failed negotiation on newer
// versions from some hosts.
func connectMongo(ctx context.Context, mongoURI string) (*mongo.Client, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

func (s *MongoCatalogService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoCatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"active": bson.M{"$ne": false}}
	opts := options.Find().SetSort(bson.D{{Key: "category_name", Value: 1}, {Key: "name", Value: 1}})

	cur, err := s.itemTypesColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []mongoItemTypeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return groupItemTypes(docs), nil
}

// groupItemTypes folds sorted item type docs into categories, keeping the
// order categories first appear in.
func groupItemTypes(docs []mongoItemTypeDoc) []models.Category {
	var out []models.Category
	index := make(map[string]int)

	for _, d := range docs {
		key := d.CategoryID
		if key == "" {
			key = d.CategoryName
		}
		i, ok := index[key]
		if !ok {
			out = append(out, models.Category{ID: d.CategoryID, Name: d.CategoryName})
			i = len(out) - 1
			index[key] = i
		}
		out[i].ItemTypes = append(out[i].ItemTypes, itemTypeDocToModel(d))
	}
	return out
}

func itemTypeDocToModel(d mongoItemTypeDoc) models.ItemType {
	return models.ItemType{
		ID:                d.ID,
		Name:              d.Name,
		Category:          d.CategoryName,
		DefaultValue:      d.DefaultValue,
		FixedCondition:    models.Condition(d.FixedCondition),
		HasFixedCondition: d.HasFixedCondition,
		AvgRetailPrice:    d.AvgRetailPrice,
	}
}
