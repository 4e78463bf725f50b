package service

import (
	"context"

	"distriflow/internal/apierror"
	"distriflow/internal/model"
	"distriflow/internal/repository"

	"github.com/google/uuid"
)

// validateBundleGraph walks a product's component edges and rejects any
// cycle. It must run before the first decrement of a commit so that a sale
// referencing a cyclic bundle leaves no state change.
func validateBundleGraph(ctx context.Context, repo repository.ProductRepository, tenantID, productID uuid.UUID, name string, visited map[uuid.UUID]bool) error {
	if visited[productID] {
		return apierror.InvalidBundleGraph(name)
	}
	visited[productID] = true
	defer delete(visited, productID)

	edges, err := repo.ComponentsOf(ctx, tenantID, productID)
	if err != nil {
		return err
	}
	for _, edge := range edges {
		childName := name
		if edge.Component != nil {
			childName = edge.Component.Name
		}
		if err := validateBundleGraph(ctx, repo, tenantID, edge.ComponentID, childName, visited); err != nil {
			return err
		}
	}
	return nil
}

// wouldCreateCycle checks whether adding the edge bundle→component closes a
// loop, i.e. whether bundle is reachable from component.
func wouldCreateCycle(ctx context.Context, repo repository.ProductRepository, tenantID, bundleID, componentID uuid.UUID) (bool, error) {
	if bundleID == componentID {
		return true, nil
	}
	edges, err := repo.ComponentsOf(ctx, tenantID, componentID)
	if err != nil {
		return false, err
	}
	for _, edge := range edges {
		cyclic, err := wouldCreateCycle(ctx, repo, tenantID, bundleID, edge.ComponentID)
		if err != nil {
			return false, err
		}
		if cyclic {
			return true, nil
		}
	}
	return false, nil
}

// componentEdges loads a bundle's edge list with resolved components.
func componentEdges(ctx context.Context, repo repository.ProductRepository, tenantID, bundleID uuid.UUID) ([]model.BundleComponent, error) {
	return repo.ComponentsOf(ctx, tenantID, bundleID)
}
