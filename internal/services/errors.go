package services

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrRoomNotFound             = errors.New("Room not found")
	ErrInvalidHotspotIndex      = errors.New("Invalid hotspot index")
	ErrInvalidMediaHotspotIndex = errors.New("Invalid media hotspot index")
	ErrInvalidMailHotspotIndex  = errors.New("Invalid mail hotspot index")
	ErrSensorNotFound           = errors.New("Sensor not found")
	ErrFloorNotFound            = errors.New("Floor not found")
	ErrTilesNotFound            = errors.New("Tiles not found")
	ErrFileTooLarge             = errors.New("File too large (max 50MB)")
	ErrTileGeneration           = errors.New("Failed to generate tiles")
)

// ValidationError is a client input problem. Its message is shown to the
// user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
