package services

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveFloorClampsMarkers(t *testing.T) {
	h := newHarness(t)
	floor, m, err := h.minimap.SaveFloor(context.Background(), 2, FloorInput{
		Image:   "/uploads/minimap_1.png",
		Markers: []MarkerInput{{X: ptr(-0.5), Y: ptr(1.7), RoomID: 9}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Floor 2", floor.Name)
	require.Len(t, floor.Markers, 1)
	assert.Equal(t, 0.0, floor.Markers[0].X)
	assert.Equal(t, 1.0, floor.Markers[0].Y)
	assert.Len(t, m.Floors, 1)
}

func TestSaveFloorValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cases := map[string]FloorInput{
		"Missing minimap image":    {Markers: []MarkerInput{}},
		"Markers must be an array": {Image: "/uploads/a.png"},
		"Marker 1 missing x/y":     {Image: "/uploads/a.png", Markers: []MarkerInput{{X: ptr(0.1), Y: ptr(0.1)}, {X: ptr(0.2)}}},
	}
	for want, in := range cases {
		_, _, err := h.minimap.SaveFloor(ctx, 1, in)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), want)
		assert.Equal(t, want, verr.Message)
	}
}

func TestUploadFloorImage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	floor, m, err := h.minimap.UploadFloorImage(ctx, 0, "Ground", Upload{
		Filename: "plan.PNG", ContentType: "image/png", Body: strings.NewReader("png"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, floor.ID)
	assert.Equal(t, "Ground", floor.Name)
	assert.True(t, strings.HasPrefix(floor.Image, "/uploads/minimap_"))
	assert.True(t, strings.HasSuffix(floor.Image, ".png"))
	assert.Len(t, m.Floors, 1)

	_, _, err = h.minimap.UploadFloorImage(ctx, 1, "", Upload{Filename: "a.pdf", ContentType: "application/pdf"})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRenameAndDeleteFloor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, _, err := h.minimap.SaveFloor(ctx, 1, FloorInput{Image: "/uploads/a.png", Markers: []MarkerInput{}})
	require.NoError(t, err)

	_, _, err = h.minimap.RenameFloor(ctx, 1, "   ")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	floor, _, err := h.minimap.RenameFloor(ctx, 1, " Lobby ")
	require.NoError(t, err)
	assert.Equal(t, "Lobby", floor.Name)

	_, _, err = h.minimap.RenameFloor(ctx, 3, "x")
	assert.ErrorIs(t, err, ErrFloorNotFound)

	m, err := h.minimap.DeleteFloor(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, m.Floors)
	_, err = h.minimap.DeleteFloor(ctx, 1)
	assert.ErrorIs(t, err, ErrFloorNotFound)
}

func TestLegacyMinimapIsFloorOne(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.Put(ctx, "minimap", []byte(`{"image": "/uploads/old.png", "markers": [{"x": 0.5, "y": 0.5, "roomId": 1}]}`)))

	floor, err := h.minimap.Floor(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/old.png", floor.Image)
	assert.Len(t, floor.Markers, 1)

	_, err = h.minimap.Floor(ctx, 2)
	assert.ErrorIs(t, err, ErrFloorNotFound)
}
