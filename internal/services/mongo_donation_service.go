package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
)

const (
	tempPasswordLength   = 10
	defaultWalkInDomain  = "walkin.local"
	donationStatusIntake = "received"
)

// MongoDonationService records donations directly. Donors without an account
// get one with a temporary password that staff hand over at the desk.
type MongoDonationService struct {
	client        *mongo.Client
	donorsColl    *mongo.Collection
	donationsColl *mongo.Collection
	walkInDomain  string
	now           func() time.Time
}

type mongoDonorDoc struct {
	ID                 string    `bson:"_id"`
	Name               string    `bson:"name"`
	Address            string    `bson:"address"`
	Phone              string    `bson:"phone"`
	Email              string    `bson:"email"`
	PasswordHash       string    `bson:"password_hash"`
	MustChangePassword bool      `bson:"must_change_password"`
	WalkIn             bool      `bson:"walk_in"`
	CreatedAt          time.Time `bson:"created_at"`
}

type mongoDonationItemDoc struct {
	ItemTypeID           string  `bson:"item_type_id"`
	Quantity             int     `bson:"quantity"`
	QuantityPerContainer int     `bson:"quantity_per_container,omitempty"`
	ContainerType        string  `bson:"container_type,omitempty"`
	ContainerCount       int     `bson:"container_count,omitempty"`
	DeclaredValue        float64 `bson:"declared_value"`
	Condition            string  `bson:"condition"`
	Description          string  `bson:"description"`
	AssortedGroupID      string  `bson:"assorted_group_id,omitempty"`
}

type mongoDonationDoc struct {
	ID             string                 `bson:"_id"`
	DonorID        string                 `bson:"donor_id"`
	DonationMethod string                 `bson:"donation_method"`
	Items          []mongoDonationItemDoc `bson:"items"`
	TotalValue     float64                `bson:"total_value"`
	Notes          string                 `bson:"notes"`
	Status         string                 `bson:"status"`
	CreatedAt      time.Time              `bson:"created_at"`
}

func NewMongoDonationService(ctx context.Context, mongoURI, dbName, walkInDomain string) (*MongoDonationService, error) {
	client, err := connectMongo(ctx, mongoURI)
	if err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	donors := db.Collection("donors")
	donations := db.Collection("donations")

	// Best-effort indexes.
	_, _ = donors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
	})
	_, _ = donations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "donor_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})

	if strings.TrimSpace(walkInDomain) == "" {
		walkInDomain = defaultWalkInDomain
	}

	log.Printf("MongoDB donations connected: db=%s", dbName)
	return &MongoDonationService{
		client:        client,
		donorsColl:    donors,
		donationsColl: donations,
		walkInDomain:  walkInDomain,
		now:           time.Now,
	}, nil
}

func (s *MongoDonationService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoDonationService) CreateDonation(ctx context.Context, req *models.CreateDonationRequest) (*models.CreateDonationResponse, error) {
	now := s.now().UTC()

	donorID, creds, err := s.resolveDonor(ctx, req.Donor, now)
	if err != nil {
		return nil, err
	}

	doc := donationDocFromRequest(req, donorID, now)
	if _, err := s.donationsColl.InsertOne(ctx, doc); err != nil {
		if creds != nil {
			// Don't leave an account behind for a donation that was never recorded.
			_, _ = s.donorsColl.DeleteOne(ctx, bson.M{"_id": donorID})
		}
		return nil, err
	}

	log.Printf("[donations] created id=%s donor=%s items=%d walkInAccount=%v", doc.ID, donorID, len(doc.Items), creds != nil)
	return &models.CreateDonationResponse{
		DonationID:  doc.ID,
		DonorID:     donorID,
		Credentials: creds,
	}, nil
}

// resolveDonor reuses a donor with the same email, otherwise creates a
// walk-in account and returns its temporary credentials.
func (s *MongoDonationService) resolveDonor(ctx context.Context, donor models.Donor, now time.Time) (string, *models.TempCredentials, error) {
	email := strings.ToLower(strings.TrimSpace(donor.Email))
	if email != "" {
		var existing mongoDonorDoc
		err := s.donorsColl.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
		if err == nil {
			return existing.ID, nil, nil
		}
		if err != mongo.ErrNoDocuments {
			return "", nil, err
		}
	} else {
		email = walkInEmail(s.walkInDomain)
	}

	password, err := generateTempPassword(tempPasswordLength)
	if err != nil {
		return "", nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	doc := mongoDonorDoc{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(donor.Name),
		Address:            strings.TrimSpace(donor.Address),
		Phone:              strings.TrimSpace(donor.Phone),
		Email:              email,
		PasswordHash:       string(hash),
		MustChangePassword: true,
		WalkIn:             true,
		CreatedAt:          now,
	}
	if _, err := s.donorsColl.InsertOne(ctx, doc); err != nil {
		return "", nil, err
	}
	return doc.ID, &models.TempCredentials{Email: email, TempPassword: password}, nil
}

func donationDocFromRequest(req *models.CreateDonationRequest, donorID string, now time.Time) mongoDonationDoc {
	doc := mongoDonationDoc{
		ID:             uuid.New().String(),
		DonorID:        donorID,
		DonationMethod: string(req.DonationMethod),
		Items:          make([]mongoDonationItemDoc, 0, len(req.Items)),
		Notes:          req.Notes,
		Status:         donationStatusIntake,
		CreatedAt:      now,
	}
	for _, it := range req.Items {
		doc.Items = append(doc.Items, mongoDonationItemDoc{
			ItemTypeID:           it.ItemTypeID,
			Quantity:             it.Quantity,
			QuantityPerContainer: it.QuantityPerContainer,
			ContainerType:        it.ContainerType,
			ContainerCount:       it.ContainerCount,
			DeclaredValue:        it.DeclaredValue,
			Condition:            string(it.Condition),
			Description:          it.Description,
			AssortedGroupID:      it.AssortedGroupID,
		})
		doc.TotalValue += it.DeclaredValue
	}
	doc.TotalValue = estimation.RoundCents(doc.TotalValue)
	return doc
}
