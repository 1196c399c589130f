package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/k8s"
	log "github.com/sirupsen/logrus"
)

var ErrRackNotFound = errors.New("server not found")

type InventoryService struct {
	Repos *repository.Repos
}

func NewInventoryService(repos *repository.Repos) *InventoryService {
	return &InventoryService{
		Repos: repos,
	}
}

// Availability lists every inventory row matching query.
func (s *InventoryService) Availability(ctx context.Context, query string) ([]inventory.Availability, error) {
	rows, err := s.Repos.Inventory.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := inventory.Filter(rows, query)
	out := make([]inventory.Availability, 0, len(filtered))
	for _, row := range filtered {
		out = append(out, inventory.Describe(row))
	}
	return out, nil
}

func (s *InventoryService) Models(ctx context.Context) ([]inventory.GPUModel, error) {
	return s.Repos.GPUModel.List(ctx)
}

func (s *InventoryService) Racks(ctx context.Context) ([]inventory.Rack, error) {
	return s.Repos.Rack.List(ctx)
}

func (s *InventoryService) rackRows(ctx context.Context, rackID uint) ([]inventory.ServerGPU, error) {
	if _, err := s.Repos.Rack.GetByID(ctx, rackID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRackNotFound
		}
		return nil, err
	}
	return s.Repos.Inventory.ListByServer(ctx, rackID)
}

// ModelsOnRack lists the models a request can currently be made for.
func (s *InventoryService) ModelsOnRack(ctx context.Context, rackID uint) ([]inventory.GPUModel, error) {
	rows, err := s.rackRows(ctx, rackID)
	if err != nil {
		return nil, err
	}
	return inventory.AvailableModels(rows, rackID), nil
}

func (s *InventoryService) QuantityOptions(ctx context.Context, rackID, modelID uint) ([]int, error) {
	rows, err := s.rackRows(ctx, rackID)
	if err != nil {
		return nil, err
	}
	return inventory.QuantityOptions(inventory.MaxQuantity(rows, rackID, modelID)), nil
}

type SeedStock struct {
	Model     string
	Total     int
	Available *int
}

type SeedRack struct {
	Rack inventory.Rack
	GPUs []SeedStock
}

type SeedInput struct {
	Models []inventory.GPUModel
	Racks  []SeedRack
}

// Seed upserts models, racks and stock in one transaction. Stock rows without
// an explicit available count start fully available.
func (s *InventoryService) Seed(ctx context.Context, in SeedInput) error {
	return s.Repos.ExecTx(ctx, func(tx *repository.Repos) error {
		models := map[string]uint{}
		for i := range in.Models {
			m := in.Models[i]
			if err := tx.GPUModel.Upsert(ctx, &m); err != nil {
				return fmt.Errorf("gpu model %s: %w", m.Name, err)
			}
			models[m.Name] = m.ID
		}

		for _, sr := range in.Racks {
			rack := sr.Rack
			if err := tx.Rack.Upsert(ctx, &rack); err != nil {
				return fmt.Errorf("rack %s: %w", rack.Name, err)
			}
			for _, stock := range sr.GPUs {
				modelID, ok := models[stock.Model]
				if !ok {
					return fmt.Errorf("rack %s references unknown gpu model %q", rack.Name, stock.Model)
				}
				available := stock.Total
				if stock.Available != nil {
					available = *stock.Available
				}
				if available < 0 || available > stock.Total {
					return fmt.Errorf("rack %s model %s: available %d outside 0..%d", rack.Name, stock.Model, available, stock.Total)
				}
				row := &inventory.ServerGPU{
					ServerID:       rack.ID,
					GPUModelID:     modelID,
					TotalCount:     stock.Total,
					AvailableCount: available,
				}
				if err := tx.Inventory.Upsert(ctx, row); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// ApplyNodeCapacity sets total_count from cluster node capacity. Nodes are
// matched to racks by node name; unknown products become new GPU models.
func (s *InventoryService) ApplyNodeCapacity(ctx context.Context, nodes []k8s.NodeGPU) (int, error) {
	racks, err := s.Repos.Rack.List(ctx)
	if err != nil {
		return 0, err
	}
	byNode := map[string]inventory.Rack{}
	for _, r := range racks {
		if r.NodeName != "" {
			byNode[r.NodeName] = r
		}
	}

	updated := 0
	err = s.Repos.ExecTx(ctx, func(tx *repository.Repos) error {
		for _, n := range nodes {
			rack, ok := byNode[n.Node]
			if !ok {
				log.WithField("node", n.Node).Debug("no rack mapped to node, skipping")
				continue
			}
			product := strings.TrimSpace(n.Product)
			if product == "" {
				log.WithField("node", n.Node).Warn("node has GPUs but no product label, skipping")
				continue
			}
			model := inventory.GPUModel{Name: product, Vendor: n.Vendor, MemoryGB: n.MemoryGB}
			if err := tx.GPUModel.Upsert(ctx, &model); err != nil {
				return err
			}
			if err := tx.Inventory.SetTotal(ctx, rack.ID, model.ID, n.Count); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	return updated, err
}
