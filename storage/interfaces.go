package storage

import "realestate-insights/models"

// ProjectWriter is the interface any snapshot sink must satisfy.
type ProjectWriter interface {
	Write(projects []*models.Project) error
	Close() error
}
