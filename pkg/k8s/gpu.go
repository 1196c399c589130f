package k8s

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

const (
	DefaultGPUResource  = "nvidia.com/gpu"
	DefaultProductLabel = "nvidia.com/gpu.product"
	MemoryLabel         = "nvidia.com/gpu.memory"
)

// NodeGPU is the allocatable GPU capacity of one node.
type NodeGPU struct {
	Node     string
	Product  string
	Vendor   string
	MemoryGB int
	Count    int
}

// ListNodeGPUs reads allocatable GPUs from every node that exposes the
// resource. Nodes without it are skipped.
func ListNodeGPUs(ctx context.Context, cs kubernetes.Interface, resourceName, productLabel string) ([]NodeGPU, error) {
	if resourceName == "" {
		resourceName = DefaultGPUResource
	}
	if productLabel == "" {
		productLabel = DefaultProductLabel
	}

	nodes, err := cs.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, err
	}

	out := []NodeGPU{}
	for _, n := range nodes.Items {
		qty, ok := n.Status.Allocatable[corev1.ResourceName(resourceName)]
		if !ok || qty.Value() <= 0 {
			continue
		}
		out = append(out, NodeGPU{
			Node:     n.Name,
			Product:  ProductName(n.Labels[productLabel]),
			Vendor:   vendorOf(resourceName),
			MemoryGB: memoryGB(n.Labels[MemoryLabel]),
			Count:    int(qty.Value()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out, nil
}

// ProductName turns a GPU feature discovery label such as
// "NVIDIA-A100-SXM4-80GB" into "A100 SXM4 80GB".
func ProductName(label string) string {
	name := strings.TrimSpace(label)
	for _, prefix := range []string{"NVIDIA-", "Tesla-"} {
		name = strings.TrimPrefix(name, prefix)
	}
	return strings.ReplaceAll(name, "-", " ")
}

func vendorOf(resourceName string) string {
	domain, _, _ := strings.Cut(resourceName, "/")
	switch domain {
	case "nvidia.com":
		return "NVIDIA"
	case "amd.com":
		return "AMD"
	}
	return ""
}

// memoryGB converts the MiB label to whole GB.
func memoryGB(mib string) int {
	n, err := strconv.Atoi(strings.TrimSpace(mib))
	if err != nil || n <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / 1024))
}
