package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/tripzi/tripzi-backend/internal/models"
)

const auditLogsCollection = "auditLogs"

// firestoreAuditRepository implements AuditRepository using Firestore.
type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates an AuditRepository backed by client.
func NewFirestoreAuditRepository(client *firestore.Client) (AuditRepository, error) {
	if client == nil {
		return nil, errors.New("firestore client is not initialized for AuditRepository")
	}
	return &firestoreAuditRepository{client: client}, nil
}

// Create stores logEntry under its ID, or under a generated ID when empty.
// Timestamp is filled in by the server.
func (r *firestoreAuditRepository) Create(ctx context.Context, logEntry models.AuditLog) error {
	col := r.client.Collection(auditLogsCollection)
	ref := col.NewDoc()
	if logEntry.ID != "" {
		ref = col.Doc(logEntry.ID)
	}
	if _, err := ref.Create(ctx, logEntry); err != nil {
		return fmt.Errorf("failed to create audit log '%s': %w", ref.ID, err)
	}
	return nil
}
