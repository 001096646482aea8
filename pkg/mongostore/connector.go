package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/connection"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Connector opens MongoDB connections from a connection.Config. It holds
// no state of its own, every Connect call builds a fresh client that the
// caller closes when the operation is done.
type Connector struct {
	cfg connection.Config
}

// NewConnector creates a connector for the given deployment.
func NewConnector(cfg connection.Config) *Connector {
	return &Connector{cfg: cfg}
}

// Connect dials the deployment and scopes the connection to the
// configured database.
func (c *Connector) Connect(ctx context.Context) (domain.Conn, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.cfg.URI()))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	return &conn{
		client: client,
		db:     client.Database(c.cfg.DatabaseName()),
	}, nil
}

type conn struct {
	client *mongo.Client
	db     *mongo.Database
}

func (c *conn) Collection(name string) domain.CollectionHandle {
	return &handle{col: c.db.Collection(name)}
}

func (c *conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
