package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/elimu/core/order"
)

type orderDoc struct {
	ID             string               `bson:"_id"`
	UserID         string               `bson:"user_id"`
	UserName       string               `bson:"user_name"`
	UserEmail      string               `bson:"user_email"`
	OrderStatus    string               `bson:"order_status"`
	PaymentMethod  string               `bson:"payment_method"`
	PaymentStatus  string               `bson:"payment_status"`
	OrderDate      time.Time            `bson:"order_date"`
	PaymentID      string               `bson:"payment_id"`
	PayerID        string               `bson:"payer_id"`
	InstructorID   string               `bson:"instructor_id"`
	InstructorName string               `bson:"instructor_name"`
	CourseImage    string               `bson:"course_image"`
	CourseTitle    string               `bson:"course_title"`
	CourseID       string               `bson:"course_id"`
	CoursePricing  primitive.Decimal128 `bson:"course_pricing"`
	Currency       string               `bson:"currency"`
	UpdatedAt      time.Time            `bson:"updated_at"`
}

type orderRepository struct {
	coll *mongo.Collection
}

var _ order.Repository = (*orderRepository)(nil)

func NewOrderRepository(db *DB) order.Repository {
	return &orderRepository{coll: db.collection(orderCollection)}
}

func (repo *orderRepository) toDoc(o order.Order) orderDoc {
	return orderDoc{
		ID:             o.ID,
		UserID:         o.UserID,
		UserName:       o.UserName,
		UserEmail:      o.UserEmail,
		OrderStatus:    o.OrderStatus,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		OrderDate:      utc(o.OrderDate),
		PaymentID:      o.PaymentID,
		PayerID:        o.PayerID,
		InstructorID:   o.InstructorID,
		InstructorName: o.InstructorName,
		CourseImage:    o.CourseImage,
		CourseTitle:    o.CourseTitle,
		CourseID:       o.CourseID,
		CoursePricing:  toDecimal128(o.CoursePricing),
		Currency:       o.Currency,
		UpdatedAt:      utc(o.UpdatedAt),
	}
}

func (repo *orderRepository) fromDoc(doc orderDoc) order.Order {
	return order.Order{
		ID:             doc.ID,
		UserID:         doc.UserID,
		UserName:       doc.UserName,
		UserEmail:      doc.UserEmail,
		OrderStatus:    doc.OrderStatus,
		PaymentMethod:  doc.PaymentMethod,
		PaymentStatus:  doc.PaymentStatus,
		OrderDate:      doc.OrderDate,
		PaymentID:      doc.PaymentID,
		PayerID:        doc.PayerID,
		InstructorID:   doc.InstructorID,
		InstructorName: doc.InstructorName,
		CourseImage:    doc.CourseImage,
		CourseTitle:    doc.CourseTitle,
		CourseID:       doc.CourseID,
		CoursePricing:  fromDecimal128(doc.CoursePricing),
		Currency:       doc.Currency,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func (repo *orderRepository) CreateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	if _, err := repo.coll.InsertOne(ctx, repo.toDoc(o)); err != nil {
		return order.Order{}, errors.Wrap(err, "inserting order")
	}
	return o, nil
}

func (repo *orderRepository) GetOrder(ctx context.Context, id string) (order.Order, error) {
	var doc orderDoc
	if err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, errors.Wrap(err, "finding order")
	}
	return repo.fromDoc(doc), nil
}

func (repo *orderRepository) UpdateOrder(ctx context.Context, o order.Order) (order.Order, error) {
	res, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": o.ID}, repo.toDoc(o))
	if err != nil {
		return order.Order{}, errors.Wrap(err, "updating order")
	}
	if res.MatchedCount == 0 {
		return order.Order{}, order.ErrNotFound
	}
	return o, nil
}
