package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/apperr"
	"commerce-service/internal/model"
)

func TestCreateAssignsVersionOne(t *testing.T) {
	e := newEngine(t)

	p := e.seedProduct(t, "Keyboard", "KB-001", 49.90, intPtr(10), nil)

	assert.Equal(t, 1, p.Version)
	assert.True(t, p.IsCurrent)
	assert.NotEmpty(t, p.ProductID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.VersionCreatedAt)
}

func TestCreateRequiresTenantAndMarket(t *testing.T) {
	e := newEngine(t)

	_, err := e.versions.Create(&model.Product{Name: "X", MarketID: 1}, "")
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)

	_, err = e.versions.Create(&model.Product{Name: "X", TenantID: 1}, "")
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Status)
}

func TestUpdateCreatesStrictlyIncreasingVersions(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Keyboard", "KB-001", 49.90, intPtr(10), nil)
	createdAt := p.CreatedAt

	v2, err := e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Keyboard v2", SKU: "KB-001", Price: 54.90, Stock: intPtr(10), MarketID: 1,
	}, "editor@test", "price bump")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)

	v3, err := e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Keyboard v3", SKU: "KB-001", Price: 59.90, Stock: intPtr(10), MarketID: 1,
	}, "editor@test", "")
	require.NoError(t, err)
	assert.Equal(t, 3, v3.Version)

	// createdAt never changes across versions
	assert.WithinDuration(t, createdAt, v3.CreatedAt, time.Second)

	// exactly one current record
	versions, err := e.versions.ListVersions(1, p.ProductID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	currentCount := 0
	for _, v := range versions {
		if v.IsCurrent {
			currentCount++
		}
	}
	assert.Equal(t, 1, currentCount)

	current, err := e.versions.GetCurrent(1, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard v3", current.Name)
	assert.Equal(t, 3, current.Version)
}

func TestUpdateMissingProductNotFound(t *testing.T) {
	e := newEngine(t)

	_, err := e.versions.Update(1, "no-such-product", &model.Product{Name: "X"}, "editor", "")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestListVersionsNewestFirst(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Mug", "MUG-01", 9.50, nil, nil)
	_, err := e.versions.Update(1, p.ProductID, &model.Product{Name: "Mug v2", SKU: "MUG-01", MarketID: 1}, "editor", "")
	require.NoError(t, err)

	versions, err := e.versions.ListVersions(1, p.ProductID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)

	_, err = e.versions.ListVersions(1, "no-such-product")
	assert.True(t, apperr.IsNotFound(err))
}

func TestRestoreDoesNotCreateNewVersion(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Lamp", "LMP-01", 30, intPtr(5), nil)
	_, err := e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Lamp v2", SKU: "LMP-01", Price: 35, Stock: intPtr(5), MarketID: 1,
	}, "editor", "redesign")
	require.NoError(t, err)

	restored, err := e.versions.Restore(1, p.ProductID, 1, "admin@test")
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Version)
	assert.True(t, restored.IsCurrent)
	assert.Contains(t, restored.ChangeNotes, "Restored version 1 by admin@test")

	// no version 3 was created
	versions, err := e.versions.ListVersions(1, p.ProductID)
	require.NoError(t, err)
	require.Len(t, versions, 2)

	current, err := e.versions.GetCurrent(1, p.ProductID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.Version)
	assert.Equal(t, "Lamp", current.Name)
}

func TestRestoreAppendsToExistingNotes(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Desk", "DSK-01", 120, nil, nil)
	v2, err := e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Desk v2", SKU: "DSK-01", Price: 130, MarketID: 1,
	}, "editor", "new finish")
	require.NoError(t, err)
	_, err = e.versions.Update(1, p.ProductID, &model.Product{
		Name: "Desk v3", SKU: "DSK-01", Price: 140, MarketID: 1,
	}, "editor", "")
	require.NoError(t, err)

	restored, err := e.versions.Restore(1, p.ProductID, v2.Version, "admin@test")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(restored.ChangeNotes, "new finish | "))
	assert.Contains(t, restored.ChangeNotes, "Restored version 2 by admin@test")
}

func TestRestoreMissingEitherSideNotFound(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Chair", "CHR-01", 80, nil, nil)

	_, err := e.versions.Restore(1, p.ProductID, 99, "admin")
	assert.True(t, apperr.IsNotFound(err))

	_, err = e.versions.Restore(1, "no-such-product", 1, "admin")
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteAllRemovesChainAndIsIdempotent(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Shelf", "SHL-01", 60, nil, nil)
	_, err := e.versions.Update(1, p.ProductID, &model.Product{Name: "Shelf v2", SKU: "SHL-01", MarketID: 1}, "editor", "")
	require.NoError(t, err)

	require.NoError(t, e.versions.DeleteAll(1, p.ProductID))
	_, err = e.versions.GetCurrent(1, p.ProductID)
	assert.True(t, apperr.IsNotFound(err))

	// deleting again is not an error
	require.NoError(t, e.versions.DeleteAll(1, p.ProductID))
}

func TestGetCurrentScopedByTenant(t *testing.T) {
	e := newEngine(t)
	p := e.seedProduct(t, "Bottle", "BTL-01", 12, nil, nil)

	_, err := e.versions.GetCurrent(2, p.ProductID)
	assert.True(t, apperr.IsNotFound(err))
}
