package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/hirelens/internal/otp/entity"
	"github.com/shandysiswandi/hirelens/internal/pkg/goerror"
	"github.com/shandysiswandi/hirelens/internal/pkg/instrument"
	"github.com/shandysiswandi/hirelens/internal/pkg/uid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type otpDocument struct {
	ID         int64     `bson:"_id"`
	Identifier string    `bson:"identifier"`
	Channel    string    `bson:"channel"`
	Code       string    `bson:"code"`
	Consumed   bool      `bson:"consumed"`
	ExpiresAt  time.Time `bson:"expires_at"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// storedDocument is the read shape. expires_at is kept raw because records
// written by other tools may hold it as a string.
type storedDocument struct {
	ID         int64         `bson:"_id"`
	Identifier string        `bson:"identifier"`
	Channel    string        `bson:"channel"`
	Code       string        `bson:"code"`
	Consumed   bool          `bson:"consumed"`
	ExpiresAt  bson.RawValue `bson:"expires_at"`
	CreatedAt  time.Time     `bson:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at"`
}

// DocStore stores OTP records in the MongoDB collection "otp".
type DocStore struct {
	coll *mongo.Collection
	uid  uid.NumberID
	ins  instrument.Instrumentation
}

func NewDocStore(db *mongo.Database, uid uid.NumberID, ins instrument.Instrumentation) *DocStore {
	return &DocStore{coll: db.Collection(entity.TableName), uid: uid, ins: ins}
}

// EnsureIndexes creates the lookup index used by GetLatestOTP.
func (d *DocStore) EnsureIndexes(ctx context.Context) error {
	_, err := d.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "identifier", Value: 1},
			{Key: "code", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("otp_identifier_code_created_at"),
	})
	return err
}

func (d *DocStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return d.ins.Tracer("otp.outbound.docstore").Start(ctx, name)
}

func (d *DocStore) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (d *DocStore) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return goerror.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return goerror.ErrConflict
	}
	return err
}

func (d *DocStore) CreateOTP(ctx context.Context, in entity.OTP) (_ int64, err error) {
	ctx, span := d.startSpan(ctx, "CreateOTP")
	defer func() { d.endSpan(span, err) }()

	doc := otpDocument{
		ID:         d.uid.Generate(),
		Identifier: in.Identifier,
		Channel:    in.Channel.String(),
		Code:       in.Code,
		Consumed:   in.Consumed,
		ExpiresAt:  in.ExpiresAt.UTC(),
		CreatedAt:  in.CreatedAt.UTC(),
		UpdatedAt:  in.UpdatedAt.UTC(),
	}

	if _, err = d.coll.InsertOne(ctx, doc); err != nil {
		return 0, d.mapError(err)
	}

	return doc.ID, nil
}

func (d *DocStore) GetLatestOTP(ctx context.Context, identifiers []string, code string) (_ *entity.OTP, err error) {
	ctx, span := d.startSpan(ctx, "GetLatestOTP")
	defer func() { d.endSpan(span, err) }()

	filter := bson.D{
		{Key: "identifier", Value: bson.D{{Key: "$in", Value: identifiers}}},
		{Key: "code", Value: code},
	}
	opts := options.FindOne().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})

	var doc storedDocument
	if err = d.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return nil, d.mapError(err)
	}

	return &entity.OTP{
		ID:         doc.ID,
		Identifier: doc.Identifier,
		Channel:    entity.Channel(doc.Channel),
		Code:       doc.Code,
		Consumed:   doc.Consumed,
		ExpiresAt:  readExpiry(doc.ExpiresAt),
		CreatedAt:  doc.CreatedAt.UTC(),
		UpdatedAt:  doc.UpdatedAt.UTC(),
	}, nil
}

func (d *DocStore) ConsumeOTP(ctx context.Context, id int64, at time.Time) (_ bool, err error) {
	ctx, span := d.startSpan(ctx, "ConsumeOTP")
	defer func() { d.endSpan(span, err) }()

	res, err := d.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "consumed", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "consumed", Value: true},
			{Key: "updated_at", Value: at.UTC()},
		}}},
	)
	if err != nil {
		return false, d.mapError(err)
	}

	return res.ModifiedCount == 1, nil
}

// readExpiry accepts a BSON date or an RFC3339 string. Anything else yields
// the zero time, which reads as expired.
func readExpiry(v bson.RawValue) time.Time {
	if ms, ok := v.DateTimeOK(); ok {
		return time.UnixMilli(ms).UTC()
	}
	if s, ok := v.StringValueOK(); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
