package main

import (
	"context"
	"flag"
	"os"

	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/config/db"
	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/logger"
	"github.com/linskybing/gpu-portal/pkg/utils"
	log "github.com/sirupsen/logrus"
)

type seedModel struct {
	Name              string `yaml:"name"`
	Vendor            string `yaml:"vendor"`
	MemoryGB          int    `yaml:"memory_gb"`
	ComputeCapability string `yaml:"compute_capability"`
}

type seedGPU struct {
	Model     string `yaml:"model"`
	Total     int    `yaml:"total"`
	Available *int   `yaml:"available"`
}

type seedRack struct {
	Name        string    `yaml:"name"`
	Rack        string    `yaml:"rack"`
	IP          string    `yaml:"ip"`
	SSHPort     int       `yaml:"ssh_port"`
	SSHUsername string    `yaml:"ssh_username"`
	Node        string    `yaml:"node"`
	GPUs        []seedGPU `yaml:"gpus"`
}

// seedFile is one YAML document. A file may split models and racks across
// several documents.
type seedFile struct {
	Models []seedModel `yaml:"models"`
	Racks  []seedRack  `yaml:"racks"`
}

func toSeedInput(docs []seedFile) application.SeedInput {
	var in application.SeedInput
	for _, doc := range docs {
		for _, m := range doc.Models {
			model := inventory.GPUModel{Name: m.Name, Vendor: m.Vendor, MemoryGB: m.MemoryGB}
			if m.ComputeCapability != "" {
				cc := m.ComputeCapability
				model.ComputeCapability = &cc
			}
			in.Models = append(in.Models, model)
		}
		for _, r := range doc.Racks {
			rack := inventory.Rack{
				Name:        r.Name,
				Label:       r.Rack,
				SSHPort:     r.SSHPort,
				SSHUsername: r.SSHUsername,
				NodeName:    r.Node,
			}
			if rack.SSHPort == 0 {
				rack.SSHPort = 22
			}
			if r.IP != "" {
				ip := r.IP
				rack.IPAddress = &ip
			}
			sr := application.SeedRack{Rack: rack}
			for _, g := range r.GPUs {
				sr.GPUs = append(sr.GPUs, application.SeedStock{Model: g.Model, Total: g.Total, Available: g.Available})
			}
			in.Racks = append(in.Racks, sr)
		}
	}
	return in
}

func main() {
	file := flag.String("file", "seeds/inventory.yaml", "inventory YAML file")
	flag.Parse()

	config.LoadConfig()
	logger.Init(config.LogLevel, "", false)

	content, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	docs, err := utils.DecodeYAMLDocuments[seedFile](string(content))
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}
	in := toSeedInput(docs)

	db.Init()
	svc := application.NewInventoryService(repository.NewRepositories(db.DB))
	if err := svc.Seed(context.Background(), in); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.WithFields(log.Fields{"models": len(in.Models), "racks": len(in.Racks)}).Info("Inventory seeded")
}
