package service

import (
	"github.com/cypherlabdev/odds-reconciler-service/internal/models"
)

// Ingester is an interface that abstracts normalizing and queueing a source message
// This allows for easier testing and mocking
type Ingester interface {
	Ingest(msg *models.SourceMessage, transport string) (*models.SourceBatch, error)
}
