package config

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/stevedore/pkg/domain/interfaces"
	"github.com/m-mizutani/stevedore/pkg/infra/store"
)

// Store holds delivery store configuration
type Store struct {
	FirestoreProject    string
	FirestoreDatabase   string
	FirestoreCollection string
}

// Flags returns CLI flags for delivery store configuration
func (c *Store) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project for Firestore (in-memory store when empty)",
			Destination: &c.FirestoreProject,
			Sources:     cli.EnvVars("STEVEDORE_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Destination: &c.FirestoreDatabase,
			Sources:     cli.EnvVars("STEVEDORE_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection for delivery records",
			Value:       "deliveries",
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("STEVEDORE_FIRESTORE_COLLECTION"),
		},
	}
}

// NewStore creates the delivery store. Without a Firestore project the
// in-memory store is used and delivery history does not survive restarts.
func (c *Store) NewStore(ctx context.Context) (interfaces.DeliveryStore, error) {
	if c.FirestoreProject == "" {
		return store.NewMemory(), nil
	}
	return store.NewFirestore(ctx, c.FirestoreProject, c.FirestoreDatabase, c.FirestoreCollection)
}
