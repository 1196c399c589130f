package main

import (
	"context"
	"flag"
	"time"

	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/config/db"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/k8s"
	"github.com/linskybing/gpu-portal/pkg/logger"
	log "github.com/sirupsen/logrus"
)

// inventory-sync copies allocatable GPU capacity from cluster nodes into
// server_gpus.total_count for racks mapped to a node name.
func main() {
	timeout := flag.Duration("timeout", time.Minute, "cluster and database timeout")
	flag.Parse()

	config.LoadConfig()
	logger.Init(config.LogLevel, "", false)

	cs, err := k8s.NewClientset(config.Kubeconfig)
	if err != nil {
		log.Fatalf("Failed to create kubernetes client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	nodes, err := k8s.ListNodeGPUs(ctx, cs, config.K8sGPUResource, config.K8sGPULabel)
	if err != nil {
		log.Fatalf("Failed to list GPU nodes: %v", err)
	}
	log.WithField("nodes", len(nodes)).Info("Read GPU capacity from cluster")

	db.Init()
	svc := application.NewInventoryService(repository.NewRepositories(db.DB))
	updated, err := svc.ApplyNodeCapacity(ctx, nodes)
	if err != nil {
		log.Fatalf("Failed to apply node capacity: %v", err)
	}
	log.WithField("updated", updated).Info("Inventory synced")
}
