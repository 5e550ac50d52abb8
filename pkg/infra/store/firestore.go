package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stevedore/pkg/domain/model"
	"github.com/m-mizutani/stevedore/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore persists deliveries in a Cloud Firestore collection. Document
// creation is atomic, so when GitHub redelivers a webhook the concurrent
// handlers race on Create and exactly one of them claims the delivery.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore connects to the given project and database. An empty
// databaseID selects the default database.
func NewFirestore(ctx context.Context, projectID, databaseID, collection string) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client, collection: collection}, nil
}

func (s *Firestore) docs() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Insert claims a delivery ID via an atomic document create.
func (s *Firestore) Insert(ctx context.Context, d *model.Delivery) error {
	if _, err := s.docs().Doc(d.ID.String()).Create(ctx, d); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return goerr.Wrap(types.ErrDeliveryExists, "delivery already claimed", goerr.V("id", d.ID))
		}
		return goerr.Wrap(err, "failed to insert delivery", goerr.V("id", d.ID))
	}
	return nil
}

// Update overwrites the delivery document.
func (s *Firestore) Update(ctx context.Context, d *model.Delivery) error {
	if _, err := s.docs().Doc(d.ID.String()).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to update delivery", goerr.V("id", d.ID))
	}
	return nil
}

// Get fetches one delivery by ID.
func (s *Firestore) Get(ctx context.Context, id types.DeliveryID) (*model.Delivery, error) {
	doc, err := s.docs().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrDeliveryNotFound, "delivery not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get delivery", goerr.V("id", id))
	}

	var d model.Delivery
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode delivery", goerr.V("id", id))
	}
	return &d, nil
}

// FindByRelease returns all deliveries recorded for one release. Both
// filters are equality filters, so no composite index is needed.
func (s *Firestore) FindByRelease(ctx context.Context, repository string, releaseID int64) ([]*model.Delivery, error) {
	iter := s.docs().
		Where("repository", "==", repository).
		Where("release_id", "==", releaseID).
		Documents(ctx)
	defer iter.Stop()

	return collect(iter)
}

// Recent returns up to limit deliveries ordered by receive time, newest first.
func (s *Firestore) Recent(ctx context.Context, limit int) ([]*model.Delivery, error) {
	iter := s.docs().
		OrderBy("received_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	return collect(iter)
}

func collect(iter *firestore.DocumentIterator) ([]*model.Delivery, error) {
	var results []*model.Delivery
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate deliveries")
		}

		var d model.Delivery
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode delivery", goerr.V("doc", doc.Ref.ID))
		}
		results = append(results, &d)
	}
	return results, nil
}

// Close releases the firestore client.
func (s *Firestore) Close() error {
	return s.client.Close()
}
